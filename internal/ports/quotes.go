// Package ports defines interfaces for the service's dependencies.
// Ports are contracts that adapters implement, so the application layer
// depends on abstractions rather than concrete storage or HTTP clients.
//
// Conventions:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never transport DTOs
//   - Errors are domain errors (ErrNotFound, ErrUnavailable, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

// QuoteRepository stores quotes keyed by their numeric ID.
//
// Implementations must be safe for concurrent use. Every quote passed in or
// handed out is a copy, so callers may mutate results freely.
type QuoteRepository interface {
	// Save assigns an ID when q.ID is zero, otherwise overwrites the stored quote.
	// It returns the stored copy.
	Save(ctx context.Context, q *domain.Quote) (*domain.Quote, error)

	// SaveAll saves quotes in order and returns the stored copies.
	SaveAll(ctx context.Context, qs []*domain.Quote) ([]*domain.Quote, error)

	// Replace overwrites the quote with q.ID and returns the stored copy.
	// It returns domain.ErrNotFound instead of inserting when the id is absent.
	Replace(ctx context.Context, q *domain.Quote) (*domain.Quote, error)

	// UpdateStatus atomically moves every quote in status from to status to
	// and returns the number changed.
	UpdateStatus(ctx context.Context, from, to domain.Status) (int, error)

	// FindByID returns domain.ErrNotFound if no quote has the id.
	FindByID(ctx context.Context, id int64) (*domain.Quote, error)

	// FindAll returns every quote ordered by ID.
	FindAll(ctx context.Context) ([]*domain.Quote, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)

	// DeleteByID removes the quote if present. A missing id is not an error.
	DeleteByID(ctx context.Context, id int64) error

	// DeleteAll clears the store and restarts ID assignment at 1.
	DeleteAll(ctx context.Context) error

	QuoteFinder
}

// QuoteFinder holds the single-field filters. A blank query matches nothing.
// Results are ordered by ID.
type QuoteFinder interface {
	FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Quote, error)

	// FindByCategory matches the category exactly, ignoring case and surrounding whitespace.
	FindByCategory(ctx context.Context, category string) ([]*domain.Quote, error)

	// FindByTag matches quotes having a tag that contains the query, ignoring case.
	FindByTag(ctx context.Context, tag string) ([]*domain.Quote, error)

	// FindByTitleContaining matches a case-insensitive substring of the title.
	FindByTitleContaining(ctx context.Context, term string) ([]*domain.Quote, error)

	FindByAuthor(ctx context.Context, author string) ([]*domain.Quote, error)
	FindBySource(ctx context.Context, source string) ([]*domain.Quote, error)
	FindByPublisher(ctx context.Context, publisher string) ([]*domain.Quote, error)
}

// QuoteSource fetches quotes from an external provider.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map provider errors to domain errors (ErrUnavailable, ErrNotFound)
//   - Translate provider payloads to domain.Quote
type QuoteSource interface {
	// RandomQuote returns one unsaved quote (ID zero) from the provider.
	RandomQuote(ctx context.Context) (*domain.Quote, error)
}
