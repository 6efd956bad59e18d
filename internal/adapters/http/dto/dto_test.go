package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestNewErrorResponse tests creating a basic error response.
func TestNewErrorResponse(t *testing.T) {
	got := NewErrorResponse(ErrorCodeNotFound, "resource not found")

	assert.Equal(t, &ErrorResponse{
		Error: ErrorDetail{Code: ErrorCodeNotFound, Message: "resource not found"},
	}, got)
}

// TestNewErrorResponseWithDetails tests creating an error response with details.
func TestNewErrorResponseWithDetails(t *testing.T) {
	details := map[string]string{"title": "title is required"}

	got := NewErrorResponseWithDetails(ErrorCodeValidation, "validation failed", details)

	assert.Equal(t, ErrorCodeValidation, got.Error.Code)
	assert.Equal(t, details, got.Error.Details)
}

// TestWithTraceID tests adding trace ID to error response.
func TestWithTraceID(t *testing.T) {
	resp := NewErrorResponse(ErrorCodeInternal, "internal error")

	got := resp.WithTraceID("trace-123")

	assert.Equal(t, "trace-123", got.TraceID)
	assert.Same(t, resp, got)
}

// TestHTTPStatusFromCode tests mapping error codes to HTTP status codes.
func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{code: ErrorCodeNotFound, want: http.StatusNotFound},
		{code: ErrorCodeValidation, want: http.StatusBadRequest},
		{code: ErrorCodeBadRequest, want: http.StatusBadRequest},
		{code: ErrorCodeUnavailable, want: http.StatusServiceUnavailable},
		{code: ErrorCodeTimeout, want: http.StatusGatewayTimeout},
		{code: ErrorCodeInternal, want: http.StatusInternalServerError},
		{code: "UNKNOWN_CODE", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code))
		})
	}
}

// TestMapDomainError tests mapping domain errors onto HTTP responses.
func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]string
	}{
		{
			name:        "not found",
			err:         domain.NewNotFoundError(7),
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrorCodeNotFound,
			wantMessage: "quote with id 7 not found",
		},
		{
			name:        "wrapped not found keeps root message",
			err:         fmt.Errorf("loading: %w", domain.NewNotFoundError(7)),
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrorCodeNotFound,
			wantMessage: "quote with id 7 not found",
		},
		{
			name:        "validation with field",
			err:         domain.NewValidationError("title", "title is required"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeValidation,
			wantMessage: "validation failed for title: title is required",
			wantDetails: map[string]string{"title": "title is required"},
		},
		{
			name: "every invalid field is listed",
			err: fmt.Errorf("saving: %w", domain.JoinValidation(
				&domain.ValidationError{Field: "title", Message: "title is required"},
				&domain.ValidationError{Field: "status", Message: "must be one of ACTIVE, INACTIVE, ARCHIVED"},
			)),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeValidation,
			wantMessage: "validation failed for title: title is required; status: must be one of ACTIVE, INACTIVE, ARCHIVED",
			wantDetails: map[string]string{
				"title":  "title is required",
				"status": "must be one of ACTIVE, INACTIVE, ARCHIVED",
			},
		},
		{
			name:        "validation without field",
			err:         domain.NewValidationError("", "quote cannot be nil"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeValidation,
			wantMessage: "validation failed: quote cannot be nil",
		},
		{
			name:        "unavailable hides reason",
			err:         domain.NewUnavailableError("quotable", "dial tcp: refused"),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    ErrorCodeUnavailable,
			wantMessage: "temporarily unavailable",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("listing quotes: %w", context.DeadlineExceeded),
			wantStatus:  http.StatusGatewayTimeout,
			wantCode:    ErrorCodeTimeout,
			wantMessage: "timeout",
		},
		{
			name:        "unknown",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrorCodeInternal,
			wantMessage: "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMessage)
			assert.Equal(t, tt.wantDetails, resp.Error.Details)
		})
	}

	t.Run("nil error", func(t *testing.T) {
		status, resp := MapDomainError(nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Nil(t, resp)
	})
}

// TestGetTraceID tests extracting trace ID from gin context.
func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name         string
		setupContext func(*gin.Context)
		want         string
	}{
		{
			name:         "trace ID in context",
			setupContext: func(c *gin.Context) { c.Set("trace_id", "context-trace-123") },
			want:         "context-trace-123",
		},
		{
			name:         "trace ID in header",
			setupContext: func(c *gin.Context) { c.Request.Header.Set("X-Request-ID", "header-trace-456") },
			want:         "header-trace-456",
		},
		{
			name: "trace ID in context takes precedence",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", "context-trace-123")
				c.Request.Header.Set("X-Request-ID", "header-trace-456")
			},
			want: "context-trace-123",
		},
		{
			name:         "no trace ID",
			setupContext: func(*gin.Context) {},
			want:         "",
		},
		{
			name:         "trace ID in context but wrong type",
			setupContext: func(c *gin.Context) { c.Set("trace_id", 12345) },
			want:         "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			tt.setupContext(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

// TestHandleError tests writing mapped domain errors.
func TestHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantMessageKey string
	}{
		{"not found error", domain.NewNotFoundError(123), http.StatusNotFound, ErrorCodeNotFound, "quote"},
		{"validation error", domain.NewValidationError("title", "title is required"), http.StatusBadRequest, ErrorCodeValidation, "title"},
		{"unavailable error", domain.NewUnavailableError("quotable", "connection failed"), http.StatusServiceUnavailable, ErrorCodeUnavailable, "temporarily unavailable"},
		{"internal error", errors.New("unexpected error"), http.StatusInternalServerError, ErrorCodeInternal, "internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("trace_id", "trace-"+tt.wantCode)

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			assert.Equal(t, tt.wantCode, response.Error.Code)
			assert.Contains(t, response.Error.Message, tt.wantMessageKey)
			assert.Equal(t, "trace-"+tt.wantCode, response.TraceID)
		})
	}
}

func TestRespondWithErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", "req-1")

	RespondWithErrorCode(c, ErrorCodeBadRequest, "id must be a positive integer")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "id must be a positive integer", response.Error.Message)
	assert.Equal(t, "req-1", response.TraceID)
}

func TestAbortWithErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AbortWithErrorCode(c, ErrorCodeTimeout, "request timed out")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestValidator(t *testing.T) {
	v1 := Validator()
	v2 := Validator()

	assert.NotNil(t, v1)
	assert.Same(t, v1, v2)
}

// TestBindAndValidate tests JSON binding and validation of quote requests.
func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid body", body: `{"title":"T","status":"inactive","tags":["a"]}`},
		{name: "status omitted", body: `{"title":"T"}`},
		{name: "invalid JSON", body: `{invalid}`, wantErr: ErrBinding},
		{name: "unknown status", body: `{"title":"T","status":"PENDING"}`, wantErr: ErrValidation},
		{name: "tag too long", body: `{"title":"T","tags":["` + strings.Repeat("x", 51) + `"]}`, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req QuoteRequest
			err := BindAndValidate(c, &req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "T", req.Title)
		})
	}
}

// TestBindQueryAndValidate tests query binding with defaults and bounds.
func TestBindQueryAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantErr   error
	}{
		{name: "default limit", query: "", wantLimit: DefaultPopularTags},
		{name: "explicit limit", query: "?limit=3", wantLimit: 3},
		{name: "limit too large", query: "?limit=150", wantErr: ErrValidation},
		{name: "limit zero", query: "?limit=0", wantErr: ErrValidation},
		{name: "limit not a number", query: "?limit=abc", wantErr: ErrBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/tags/popular"+tt.query, nil)

			var q PopularTagsQuery
			err := BindQueryAndValidate(c, &q)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, q.Limit)
		})
	}
}

// TestValidate_FieldsByWireName checks rule failures become domain
// validation errors keyed by JSON name.
func TestValidate_FieldsByWireName(t *testing.T) {
	req := &QuoteRequest{
		Title:  "T",
		Status: "unknown",
		Author: strings.Repeat("a", 201),
		Tags:   make([]string, 51),
	}

	err := Validate(req)
	require.ErrorIs(t, err, domain.ErrValidation)

	var all domain.ValidationErrors
	require.ErrorAs(t, err, &all)
	assert.Equal(t, map[string]string{
		"status": "must be one of ACTIVE, INACTIVE, ARCHIVED",
		"author": "must be at most 200 characters",
		"tags":   "must have at most 50 items",
	}, all.Fields())

	status, resp := MapDomainError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, all.Fields(), resp.Error.Details)
}

func TestValidate_QueryNames(t *testing.T) {
	err := Validate(&PopularTagsQuery{Limit: 0})

	var one *domain.ValidationError
	require.ErrorAs(t, err, &one)
	assert.Equal(t, "limit", one.Field)
	assert.Equal(t, "must be greater than or equal to 1", one.Message)
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)
	assert.False(t, domain.IsValidation(err))
}

func TestValidationMessageUnknownTag(t *testing.T) {
	type s struct {
		Code string `json:"code" validate:"hexadecimal"`
	}

	var one *domain.ValidationError
	require.ErrorAs(t, Validate(&s{Code: "zz"}), &one)
	assert.Equal(t, "failed validation: hexadecimal", one.Message)
}

// Title rules belong to the service, so a blank title binds cleanly here.
func TestBindAndValidate_BlankTitleLeftToService(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"   "}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req QuoteRequest
	require.NoError(t, BindAndValidate(c, &req))
	assert.Equal(t, "   ", req.Title)
}
