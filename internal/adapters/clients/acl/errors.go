package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

// ErrorResponse is an error body from a downstream service. It accepts the
// nested envelope ({"error":{"code","message"}}), a flat code/message pair,
// and quotable.io's statusCode/statusMessage form.
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Code          string      `json:"code,omitempty"`
	Message       string      `json:"message,omitempty"`
	StatusMessage string      `json:"statusMessage,omitempty"`
}

// ErrorDetail contains error information from external services.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// GetCode returns the error code from either nested or top-level format.
func (e *ErrorResponse) GetCode() string {
	if e.Error.Code != "" {
		return e.Error.Code
	}

	return e.Code
}

// GetMessage returns the first non-empty message across the supported formats.
func (e *ErrorResponse) GetMessage() string {
	switch {
	case e.Error.Message != "":
		return e.Error.Message
	case e.Message != "":
		return e.Message
	default:
		return e.StatusMessage
	}
}

// ParseErrorResponse attempts to parse an error response body.
// Returns nil if the body is empty or cannot be parsed.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed call to a domain error. resp may be nil when the
// client itself failed (transport error, open circuit, retries exhausted).
//
//   - 404 wraps [domain.ErrNotFound]; callers that know the ID replace it with a
//     typed [domain.NotFoundError]
//   - 400 and 422 become validation errors carrying every detail field
//   - everything else, including client failures, is [domain.ErrUnavailable]
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation)
}

// mapClientError keeps err in the chain so callers can still match
// clients.ErrCircuitOpen or a context error.
func mapClientError(err error, serviceName, operation string) error {
	var (
		reason string
		status *clients.StatusError
	)

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		reason = "circuit breaker open during " + operation
	case errors.As(err, &status) && status.RateLimited():
		reason = "rate limit exceeded during " + operation
		if status.RetryAfter > 0 {
			reason += fmt.Sprintf(", retry after %s", status.RetryAfter)
		}
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		reason = "max retries exceeded during " + operation
	default:
		reason = fmt.Sprintf("%s failed: %v", operation, err)
	}

	return domain.NewUnavailableErrorWithCause(serviceName, reason, err)
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation string) error {
	message := defaultMessageForStatus(status, operation)
	if errResp != nil && errResp.GetMessage() != "" {
		message = errResp.GetMessage()
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, domain.ErrNotFound)

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if errResp != nil && len(errResp.Error.Details) > 0 {
			return domain.ValidationFromFields(errResp.Error.Details)
		}

		return domain.NewValidationError("", message)

	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s: access denied", operation))

	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)

	default:
		return domain.NewValidationError("", message)
	}
}

func defaultMessageForStatus(status int, operation string) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
