// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	// Shutting down the noop provider is harmless.
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "memed-test",
		ExporterType: "carrier-pigeon",
	})
	require.Error(t, err)
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestRenderAttributes(t *testing.T) {
	m := attrMap(RenderAttributes("cat.png", "png", true, 12))

	assert.Equal(t, "cat.png", m[RenderTemplateKey].AsString())
	assert.True(t, m[RenderCacheHitKey].AsBool())
	assert.Equal(t, int64(12), m[RenderDurationKey].AsInt64())
}

func TestShareAttributes(t *testing.T) {
	m := attrMap(ShareAttributes("1756464000.png", 3))

	assert.Equal(t, "1756464000.png", m[ShareFileKey].AsString())
	assert.Equal(t, int64(3), m[SSESubscribersKey].AsInt64())
}

func TestErrorAttributes(t *testing.T) {
	m := attrMap(ErrorAttributes(errors.New("boom"), "render_failure"))
	assert.Equal(t, "render_failure", m[ErrorTypeKey].AsString())
}
