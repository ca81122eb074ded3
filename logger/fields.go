package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across tagteam.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and correlation
	FieldRequestID   = "request_id"
	FieldReconcileID = "reconcile_id"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldQuery     = "query"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount   = "count"
	FieldDeleted = "deleted"
	FieldCreated = "created"

	// Files and paths
	FieldPath = "path"

	// Tagging
	FieldTaggable = "taggable" // kind:id of the tagged entity
	FieldContext  = "context"  // tag context, empty when unset
	FieldTagger   = "tagger"   // tagger rendering (unset, default, kind:id)
	FieldTag      = "tag"      // tag name
	FieldTags     = "tags"     // tag names in a list or query
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext returns base enriched with the fields carried by ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
// Example:
//
//	store := storage.NewSQLStore(db, logger.ComponentLogger("tags.storage"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
