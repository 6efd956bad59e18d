package acl

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func TestRemote_Exchange(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		payload    any
		wantErr    func(error) bool
		wantResult []tagCount
	}{
		{
			name:       "decodes 2xx body",
			status:     http.StatusOK,
			body:       `[{"tag":"wisdom","count":3}]`,
			wantResult: []tagCount{{Tag: "wisdom", Count: 3}},
		},
		{
			name:    "malformed body is unavailable",
			status:  http.StatusOK,
			body:    `[{"tag":`,
			wantErr: domain.IsUnavailable,
		},
		{
			name:    "404 is not found",
			status:  http.StatusNotFound,
			body:    `{"error":{"code":"NOT_FOUND","message":"quote with id 4 not found"}}`,
			wantErr: domain.IsNotFound,
		},
		{
			name:    "400 is validation",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":"VALIDATION_ERROR","message":"title is required"}}`,
			payload: map[string]string{"title": ""},
			wantErr: domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent []byte

			r := remote{
				client: newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
					sent, _ = io.ReadAll(req.Body)
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				}),
				name: "quote-catalog",
			}

			got, err := exchange[[]tagCount](context.Background(), r, http.MethodPost, "/api/v1/quotes", tt.payload, "probe")

			if tt.payload != nil {
				want, _ := json.Marshal(tt.payload)
				assert.JSONEq(t, string(want), string(sent))
			} else {
				assert.Empty(t, sent)
			}

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, got)
		})
	}
}

func TestRemote_CallUnencodablePayload(t *testing.T) {
	r := remote{client: newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}), name: "quote-catalog"}

	_, err := r.call(context.Background(), http.MethodPost, "/api/v1/quotes", math.Inf(1), "create quote")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding create quote request")
}

func TestRemote_TransportFailureIsUnavailable(t *testing.T) {
	client, err := clients.New(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	r := remote{client: client, name: "quotable"}

	_, err = r.call(context.Background(), http.MethodGet, "/quotes/random", nil, "random quote")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestTranslateAll(t *testing.T) {
	toQuote := func(title *string) (*domain.Quote, error) {
		if *title == "" {
			return nil, domain.NewValidationError("title", "is required")
		}

		return domain.NewQuote(*title, ""), nil
	}

	quotes, err := translateAll([]string{"Stay hungry", "Stay foolish"}, toQuote)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "Stay foolish", quotes[1].Title)

	_, err = translateAll([]string{"ok", ""}, toQuote)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "translating item 1")

	quotes, err = translateAll(nil, toQuote)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRequirePositive(t *testing.T) {
	require.NoError(t, requirePositive(int64(1), "id"))

	err := requirePositive(0, "limit")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "limit")

	assert.True(t, domain.IsValidation(requirePositive(int64(-3), "id")))
}
