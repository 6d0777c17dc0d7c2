// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldSubscriberID  = "subscriber_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Gallery / render fields
	FieldTemplate = "template"
	FieldFormat   = "format"
	FieldFile     = "file"

	// Path fields
	FieldPath    = "path"
	FieldDataDir = "data_dir"
)
