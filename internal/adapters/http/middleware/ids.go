// Package middleware provides the gin middleware chain of the quote API.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-service/internal/platform/logging"
)

const (
	// HeaderRequestID carries the ID of a single HTTP exchange.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID spans a whole business transaction. quotectl and
	// the quote source client forward it unchanged.
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxIDLength caps inbound IDs so a caller cannot bloat every log line.
const maxIDLength = 128

// trackedID ties an idKey to the gin key dto error envelopes read and the
// logging attribute it adds.
type trackedID struct {
	key    idKey
	ginKey string
	logAs  func(ctx context.Context, id string) context.Context
}

var (
	requestID     = trackedID{key: requestIDKey, ginKey: "request_id", logAs: logging.WithRequestID}
	correlationID = trackedID{key: correlationIDKey, ginKey: "correlation_id", logAs: logging.WithCorrelationID}
)

// RequestID accepts X-Request-ID from the caller or generates a UUID. The ID
// is echoed in the response and stored on the gin context, the request
// context and the request logger.
func RequestID() gin.HandlerFunc {
	return track(requestID)
}

// CorrelationID is RequestID for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return track(correlationID)
}

func track(t trackedID) gin.HandlerFunc {
	header := t.key.header()

	return func(c *gin.Context) {
		id := acceptID(c.GetHeader(header))

		c.Set(t.ginKey, id)
		c.Header(header, id)

		ctx := context.WithValue(c.Request.Context(), t.key, id)
		c.Request = c.Request.WithContext(t.logAs(ctx, id))

		c.Next()
	}
}

// acceptID keeps a caller supplied ID only when it is short visible ASCII.
// Anything else is replaced so IDs cannot forge log lines.
func acceptID(id string) string {
	if id == "" || len(id) > maxIDLength || strings.ContainsFunc(id, notVisible) {
		return uuid.NewString()
	}

	return id
}

func notVisible(r rune) bool {
	return r <= ' ' || r > '~'
}
