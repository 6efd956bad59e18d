package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

// remote pairs a downstream client with the name its failures are reported
// under. Every adapter in this package embeds one.
type remote struct {
	client *clients.Client
	name   string
}

// call runs one request and returns the body of a 2xx response for the
// caller to close. Transport failures and error statuses come back as
// domain errors.
func (r remote) call(ctx context.Context, method, path string, payload any, op string) (io.ReadCloser, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
	}

	resp, err := r.client.Send(ctx, method, path, body)
	if err != nil {
		return nil, MapHTTPError(nil, err, r.name, op)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, r.name, op)
	}

	return resp.Body, nil
}

// exchange is call followed by decoding the JSON response into T. A payload
// that does not decode is the remote's fault, so it reads as unavailable.
func exchange[T any](ctx context.Context, r remote, method, path string, payload any, op string) (T, error) {
	var out T

	body, err := r.call(ctx, method, path, payload, op)
	if err != nil {
		return out, err
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return out, domain.NewUnavailableErrorWithCause(r.name, "malformed response",
			fmt.Errorf("decoding %s response: %w", op, err))
	}

	return out, nil
}

// translateAll converts every payload, failing on the first unusable one.
func translateAll[E any](items []E, translate func(*E) (*domain.Quote, error)) ([]*domain.Quote, error) {
	out := make([]*domain.Quote, 0, len(items))

	for i := range items {
		q, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		out = append(out, q)
	}

	return out, nil
}

// requirePositive rejects an ID, count or limit before any request is sent.
func requirePositive[T ~int | ~int64](value T, field string) error {
	if value <= 0 {
		return domain.NewValidationErrorWithValue(field, "must be positive", value)
	}

	return nil
}
