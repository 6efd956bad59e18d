// Package storage provides the in-memory QuoteRepository.
//
// Quotes live in a map guarded by a single RWMutex. Values are cloned on the
// way in and out so no caller ever shares a *domain.Quote with the store.
package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jsamuelsen/quote-service/internal/domain"
	"github.com/jsamuelsen/quote-service/internal/ports"
)

// MemoryStore is an in-memory quote repository. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[int64]*domain.Quote

	// lastID is the most recently assigned ID; the next quote gets lastID+1.
	lastID atomic.Int64
}

var (
	_ ports.QuoteRepository = (*MemoryStore)(nil)
	_ ports.HealthChecker   = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty store whose first assigned ID is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes: make(map[int64]*domain.Quote),
	}
}

// Save stores a copy of q. A zero ID is replaced with the next free ID.
func (m *MemoryStore) Save(_ context.Context, q *domain.Quote) (*domain.Quote, error) {
	if q == nil {
		return nil, domain.NewValidationError("quote", "quote cannot be nil")
	}

	if q.ID < 0 {
		return nil, domain.NewValidationErrorWithValue("id", "must be positive", q.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveLocked(q), nil
}

// SaveAll stores each quote in order under one lock.
func (m *MemoryStore) SaveAll(_ context.Context, qs []*domain.Quote) ([]*domain.Quote, error) {
	for _, q := range qs {
		if q == nil {
			return nil, domain.NewValidationError("quote", "quote cannot be nil")
		}

		if q.ID < 0 {
			return nil, domain.NewValidationErrorWithValue("id", "must be positive", q.ID)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	saved := make([]*domain.Quote, 0, len(qs))
	for _, q := range qs {
		saved = append(saved, m.saveLocked(q))
	}

	return saved, nil
}

// Replace overwrites an existing quote. It fails with ErrNotFound when the
// ID is not stored, so a concurrent delete is never undone.
func (m *MemoryStore) Replace(_ context.Context, q *domain.Quote) (*domain.Quote, error) {
	if q == nil {
		return nil, domain.NewValidationError("quote", "quote cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.quotes[q.ID]; !ok {
		return nil, domain.NewNotFoundError(q.ID)
	}

	return m.saveLocked(q), nil
}

// UpdateStatus moves every quote in status from to status to and returns how
// many changed.
func (m *MemoryStore) UpdateStatus(_ context.Context, from, to domain.Status) (int, error) {
	if !to.Valid() {
		return 0, domain.NewValidationErrorWithValue("status", "must be one of ACTIVE, INACTIVE, ARCHIVED", string(to))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, q := range m.quotes {
		if q.Status == from {
			q.SetStatus(to)
			n++
		}
	}

	return n, nil
}

func (m *MemoryStore) saveLocked(q *domain.Quote) *domain.Quote {
	stored := q.Clone()

	if stored.ID == 0 {
		stored.ID = m.lastID.Add(1)
	} else if stored.ID > m.lastID.Load() {
		// Explicit IDs push the counter forward so generated IDs never collide.
		m.lastID.Store(stored.ID)
	}

	m.quotes[stored.ID] = stored

	return stored.Clone()
}

// FindByID returns a copy of the quote with the given id.
func (m *MemoryStore) FindByID(_ context.Context, id int64) (*domain.Quote, error) {
	m.mu.RLock()
	q, ok := m.quotes[id]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.NewNotFoundError(id)
	}

	return q.Clone(), nil
}

// FindAll returns copies of all quotes ordered by ID.
func (m *MemoryStore) FindAll(_ context.Context) ([]*domain.Quote, error) {
	return m.filter(func(*domain.Quote) bool { return true }), nil
}

func (m *MemoryStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	_, ok := m.quotes[id]
	m.mu.RUnlock()

	return ok, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.quotes), nil
}

// DeleteByID removes the quote if present.
func (m *MemoryStore) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	delete(m.quotes, id)
	m.mu.Unlock()

	return nil
}

// DeleteAll removes every quote and restarts ID assignment at 1.
func (m *MemoryStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	clear(m.quotes)
	m.lastID.Store(0)
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) FindByStatus(_ context.Context, status domain.Status) ([]*domain.Quote, error) {
	if !status.Valid() {
		return []*domain.Quote{}, nil
	}

	return m.filter(func(q *domain.Quote) bool { return q.Status == status }), nil
}

func (m *MemoryStore) FindByCategory(_ context.Context, category string) ([]*domain.Quote, error) {
	return m.filterField(category, func(q *domain.Quote) string { return q.Category }), nil
}

// FindByTag matches any tag containing the query. Tags are stored lower-cased.
func (m *MemoryStore) FindByTag(_ context.Context, tag string) ([]*domain.Quote, error) {
	term, ok := domain.NormalizeTag(tag)
	if !ok {
		return []*domain.Quote{}, nil
	}

	return m.filter(func(q *domain.Quote) bool {
		return slices.ContainsFunc(q.Tags(), func(t string) bool {
			return strings.Contains(t, term)
		})
	}), nil
}

func (m *MemoryStore) FindByTitleContaining(_ context.Context, term string) ([]*domain.Quote, error) {
	needle := normalize(term)
	if needle == "" {
		return []*domain.Quote{}, nil
	}

	return m.filter(func(q *domain.Quote) bool {
		return strings.Contains(strings.ToLower(q.Title), needle)
	}), nil
}

func (m *MemoryStore) FindByAuthor(_ context.Context, author string) ([]*domain.Quote, error) {
	return m.filterField(author, func(q *domain.Quote) string { return q.Author }), nil
}

func (m *MemoryStore) FindBySource(_ context.Context, source string) ([]*domain.Quote, error) {
	return m.filterField(source, func(q *domain.Quote) string { return q.Source }), nil
}

func (m *MemoryStore) FindByPublisher(_ context.Context, publisher string) ([]*domain.Quote, error) {
	return m.filterField(publisher, func(q *domain.Quote) string { return q.Publisher }), nil
}

// Name implements ports.HealthChecker.
func (m *MemoryStore) Name() string {
	return "quote-store"
}

// Check implements ports.HealthChecker. The map is always reachable, so only
// cancellation makes the store report unhealthy.
func (m *MemoryStore) Check(ctx context.Context) error {
	return ctx.Err()
}

// filterField matches a field exactly after trimming and lower-casing both sides.
func (m *MemoryStore) filterField(query string, field func(*domain.Quote) string) []*domain.Quote {
	want := normalize(query)
	if want == "" {
		return []*domain.Quote{}
	}

	return m.filter(func(q *domain.Quote) bool {
		return normalize(field(q)) == want
	})
}

// filter returns clones of the matching quotes ordered by ID.
func (m *MemoryStore) filter(match func(*domain.Quote) bool) []*domain.Quote {
	m.mu.RLock()

	out := make([]*domain.Quote, 0, len(m.quotes))
	for _, q := range m.quotes {
		if match(q) {
			out = append(out, q.Clone())
		}
	}

	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Quote) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
