package middleware

import (
	"context"
	"net/http"
)

// idKey identifies one of the tracking IDs carried on a request context.
type idKey uint8

const (
	requestIDKey idKey = iota + 1
	correlationIDKey
)

// header returns the HTTP header the ID travels in.
func (k idKey) header() string {
	if k == correlationIDKey {
		return HeaderCorrelationID
	}

	return HeaderRequestID
}

func idFrom(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}

// RequestIDFromContext returns the request ID stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation ID stored by
// CorrelationID or ContextWithCorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationIDKey)
}

// ContextWithRequestID stores a request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation ID in the context. quotectl
// uses it to tie every call of one command invocation together.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// PropagateIDs copies the IDs found on ctx into h so an outbound call to the
// quote source or the catalog API carries them. Empty IDs are skipped.
func PropagateIDs(ctx context.Context, h http.Header) {
	for _, key := range []idKey{requestIDKey, correlationIDKey} {
		if id := idFrom(ctx, key); id != "" {
			h.Set(key.header(), id)
		}
	}
}
