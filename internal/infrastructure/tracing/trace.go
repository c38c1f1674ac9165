package tracing

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Header carries the trace ID on requests and responses
const Header = "X-Trace-ID"

// TraceID identifies one request and, for upgrades, the session it became
type TraceID string

type contextKey string

const traceIDKey contextKey = "trace_id"

// acceptable caller-supplied IDs; anything else is replaced
var validTraceID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// NewTraceID generates a fresh trace ID
func NewTraceID() TraceID {
	return TraceID(id.NewRequestID())
}

// Accept returns incoming when it is a usable trace ID and a new one
// otherwise
func Accept(incoming string) TraceID {
	if validTraceID.MatchString(incoming) {
		return TraceID(incoming)
	}
	return NewTraceID()
}

// WithTraceID stores traceID in ctx
func WithTraceID(ctx context.Context, traceID TraceID) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(TraceID); ok {
		return traceID
	}
	return ""
}

// Field returns a zap field for the trace ID in ctx, or zap.Skip when
// there is none
func Field(ctx context.Context) zap.Field {
	if traceID := GetTraceID(ctx); traceID != "" {
		return zap.String("trace_id", string(traceID))
	}
	return zap.Skip()
}
