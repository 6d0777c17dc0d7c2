// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Render attributes
	RenderTemplateKey = "render.template"
	RenderFormatKey   = "render.format"
	RenderCacheHitKey = "render.cache_hit"
	RenderDurationKey = "render.duration_ms"

	// Share attributes
	ShareFileKey = "share.file"

	// SSE attributes
	SSESubscribersKey = "sse.subscribers"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RenderAttributes creates render-related span attributes.
func RenderAttributes(template, format string, cacheHit bool, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RenderTemplateKey, template),
		attribute.String(RenderFormatKey, format),
		attribute.Bool(RenderCacheHitKey, cacheHit),
		attribute.Int64(RenderDurationKey, durationMS),
	}
}

// ShareAttributes creates share-related span attributes.
func ShareAttributes(file string, subscribers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ShareFileKey, file),
		attribute.Int(SSESubscribersKey, subscribers),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
