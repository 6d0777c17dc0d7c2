// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_FieldsAttached(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "memed-test", Version: "v9"})

	logger := WithComponent("unit")
	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "memed-test", entry["service"])
	assert.Equal(t, "v9", entry["version"])
	assert.Equal(t, "unit", entry[FieldComponent])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigure_Reconfigure(t *testing.T) {
	var first, second bytes.Buffer

	Configure(Config{Output: &first, Service: "a"})
	Configure(Config{Output: &second, Service: "b"})

	logger := L()
	logger.Info().Msg("after")

	assert.Empty(t, first.String())
	assert.Contains(t, second.String(), `"service":"b"`)
}

func TestRequestIDContext(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestWithComponentFromContext(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Service: "memed-test"})

	ctx := ContextWithRequestID(context.Background(), "req-456")
	logger := WithComponentFromContext(ctx, "api")
	logger.Info().Msg("traced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-456", entry[FieldRequestID])
	assert.Equal(t, "api", entry[FieldComponent])
}
