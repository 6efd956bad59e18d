// Package app contains application services that orchestrate use cases.
// It coordinates domain rules and infrastructure through ports and holds no
// HTTP or storage specifics.
package app

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jsamuelsen/quote-service/internal/domain"
	"github.com/jsamuelsen/quote-service/internal/platform/logging"
	"github.com/jsamuelsen/quote-service/internal/ports"
)

// Defaults for the import use case when the config leaves them unset.
const (
	DefaultMaxImport         = 10
	DefaultImportConcurrency = 4
)

// QuoteService validates quotes, delegates storage to the repository, and
// computes aggregate views over the stored set.
type QuoteService struct {
	repo     ports.QuoteRepository
	source   ports.QuoteSource
	metrics  *Metrics
	executor *Executor
	logger   *slog.Logger

	maxImport         int
	importConcurrency int
}

// QuoteServiceConfig contains the dependencies of the quote service.
// Repository is required. Source is optional; without it ImportRandom
// reports the importer as unavailable.
type QuoteServiceConfig struct {
	Repository ports.QuoteRepository
	Source     ports.QuoteSource
	Metrics    *Metrics
	Logger     *slog.Logger

	MaxImport         int
	ImportConcurrency int
}

// NewQuoteService creates a quote service. It panics if Repository is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Repository == nil {
		panic("app: QuoteServiceConfig.Repository is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.QuoteService"))

	return &QuoteService{
		repo:              cfg.Repository,
		source:            cfg.Source,
		metrics:           cfg.Metrics,
		executor:          NewExecutor(logger),
		logger:            logger,
		maxImport:         cmp.Or(cfg.MaxImport, DefaultMaxImport),
		importConcurrency: cmp.Or(cfg.ImportConcurrency, DefaultImportConcurrency),
	}
}

// ValidateQuote checks the business rules every stored quote must satisfy.
// Every broken rule is reported, not just the first.
func (s *QuoteService) ValidateQuote(q *domain.Quote) error {
	if q == nil {
		return domain.NewValidationError("", "quote cannot be nil")
	}

	var errs []*domain.ValidationError

	switch title := strings.TrimSpace(q.Title); {
	case title == "":
		errs = append(errs, &domain.ValidationError{Field: "title", Message: "title is required"})
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		errs = append(errs, &domain.ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("title cannot exceed %d characters", domain.MaxTitleLength),
			Value:   q.Title,
		})
	}

	if q.Status != "" && !q.Status.Valid() {
		errs = append(errs, &domain.ValidationError{
			Field:   "status",
			Message: "must be one of ACTIVE, INACTIVE, ARCHIVED",
			Value:   q.Status,
		})
	}

	return domain.JoinValidation(errs...)
}

// Save validates q and stores it, assigning an ID if it has none.
func (s *QuoteService) Save(ctx context.Context, q *domain.Quote) (saved *domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("save", start, err) }(time.Now())

	if err := s.ValidateQuote(q); err != nil {
		return nil, err
	}

	toSave := q.Clone()
	if toSave.Status == "" {
		toSave.Status = domain.StatusActive
	}

	toSave.Touch()

	saved, err = s.repo.Save(ctx, toSave)
	if err != nil {
		return nil, fmt.Errorf("saving quote: %w", err)
	}

	s.refreshStored(ctx)
	logging.FromContext(ctx).InfoContext(ctx, "quote saved",
		slog.Int64("quote_id", saved.ID),
		slog.String("category", saved.Category),
	)

	return saved, nil
}

// Update replaces the quote stored under id with q. The original creation
// time is kept and q's own ID is ignored.
func (s *QuoteService) Update(ctx context.Context, id int64, q *domain.Quote) (updated *domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("update", start, err) }(time.Now())

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateQuote(q); err != nil {
		return nil, err
	}

	toSave := q.Clone()
	toSave.ID = id
	toSave.CreatedAt = existing.CreatedAt

	if toSave.Status == "" {
		toSave.Status = existing.Status
	}

	toSave.Touch()

	updated, err = s.repo.Replace(ctx, toSave)
	if err != nil {
		return nil, fmt.Errorf("updating quote %d: %w", id, err)
	}

	logging.FromContext(ctx).InfoContext(ctx, "quote updated", slog.Int64("quote_id", id))

	return updated, nil
}

// FindByID returns the quote with the given id or a not found error.
func (s *QuoteService) FindByID(ctx context.Context, id int64) (q *domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_id", start, err) }(time.Now())

	return s.repo.FindByID(ctx, id)
}

// FindAll returns every stored quote ordered by ID.
func (s *QuoteService) FindAll(ctx context.Context) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_all", start, err) }(time.Now())

	return s.repo.FindAll(ctx)
}

func (s *QuoteService) ExistsByID(ctx context.Context, id int64) (ok bool, err error) {
	defer func(start time.Time) { s.metrics.observe("exists_by_id", start, err) }(time.Now())

	return s.repo.ExistsByID(ctx, id)
}

func (s *QuoteService) Count(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { s.metrics.observe("count", start, err) }(time.Now())

	return s.repo.Count(ctx)
}

// DeleteByID removes the quote with the given id. Unlike the repository,
// deleting a missing quote is an error.
func (s *QuoteService) DeleteByID(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete", start, err) }(time.Now())

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("checking quote %d: %w", id, err)
	}

	if !exists {
		return domain.NewNotFoundError(id)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("deleting quote %d: %w", id, err)
	}

	s.refreshStored(ctx)
	logging.FromContext(ctx).InfoContext(ctx, "quote deleted", slog.Int64("quote_id", id))

	return nil
}

// DeleteAll clears the store.
func (s *QuoteService) DeleteAll(ctx context.Context) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete_all", start, err) }(time.Now())

	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing quotes: %w", err)
	}

	s.refreshStored(ctx)

	return nil
}

func (s *QuoteService) FindByStatus(ctx context.Context, status domain.Status) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_status", start, err) }(time.Now())

	return s.repo.FindByStatus(ctx, status)
}

func (s *QuoteService) FindByCategory(ctx context.Context, category string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_category", start, err) }(time.Now())

	return s.repo.FindByCategory(ctx, category)
}

func (s *QuoteService) FindByTag(ctx context.Context, tag string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_tag", start, err) }(time.Now())

	return s.repo.FindByTag(ctx, tag)
}

func (s *QuoteService) FindByTitleContaining(ctx context.Context, term string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_title", start, err) }(time.Now())

	return s.repo.FindByTitleContaining(ctx, term)
}

func (s *QuoteService) FindByAuthor(ctx context.Context, author string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_author", start, err) }(time.Now())

	return s.repo.FindByAuthor(ctx, author)
}

func (s *QuoteService) FindBySource(ctx context.Context, source string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_source", start, err) }(time.Now())

	return s.repo.FindBySource(ctx, source)
}

func (s *QuoteService) FindByPublisher(ctx context.Context, publisher string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_publisher", start, err) }(time.Now())

	return s.repo.FindByPublisher(ctx, publisher)
}

// GroupByCategory partitions all quotes by their category. Quotes with no
// category are grouped under the empty key, so every quote appears exactly once.
func (s *QuoteService) GroupByCategory(ctx context.Context) (groups map[string][]*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("group_by_category", start, err) }(time.Now())

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	groups = make(map[string][]*domain.Quote)
	for _, q := range all {
		groups[q.Category] = append(groups[q.Category], q)
	}

	return groups, nil
}

// AllUniqueTags returns the sorted set of tags used by any quote.
func (s *QuoteService) AllUniqueTags(ctx context.Context) (tags []string, err error) {
	defer func(start time.Time) { s.metrics.observe("all_unique_tags", start, err) }(time.Now())

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, q := range all {
		tags = append(tags, q.Tags()...)
	}

	return domain.NormalizeTags(tags), nil
}

// CountByStatus counts quotes per status. Every status is present, so the
// values always sum to the total count.
func (s *QuoteService) CountByStatus(ctx context.Context) (counts map[domain.Status]int, err error) {
	defer func(start time.Time) { s.metrics.observe("count_by_status", start, err) }(time.Now())

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	counts = make(map[domain.Status]int, len(domain.Statuses()))
	for _, st := range domain.Statuses() {
		counts[st] = 0
	}

	for _, q := range all {
		counts[q.Status]++
	}

	return counts, nil
}

// FindByAllTags returns quotes carrying every one of tags.
// An empty tag list matches every quote.
func (s *QuoteService) FindByAllTags(ctx context.Context, tags []string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_all_tags", start, err) }(time.Now())

	want := domain.NormalizeTags(tags)

	return s.filterAll(ctx, func(q *domain.Quote) bool {
		for _, t := range want {
			if !q.HasTag(t) {
				return false
			}
		}

		return true
	})
}

// FindByAnyTag returns quotes carrying at least one of tags.
func (s *QuoteService) FindByAnyTag(ctx context.Context, tags []string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("find_by_any_tag", start, err) }(time.Now())

	want := domain.NormalizeTags(tags)

	return s.filterAll(ctx, func(q *domain.Quote) bool {
		return slices.ContainsFunc(want, q.HasTag)
	})
}

// TagCount is a tag with the number of quotes using it.
type TagCount struct {
	Tag   string
	Count int
}

// MostPopularTags returns up to limit tags ordered by usage, most used first.
// Ties keep first-seen order: quotes by ID, then tags alphabetically.
func (s *QuoteService) MostPopularTags(ctx context.Context, limit int) (counts []TagCount, err error) {
	defer func(start time.Time) { s.metrics.observe("most_popular_tags", start, err) }(time.Now())

	if limit <= 0 {
		return []TagCount{}, nil
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)

	for _, q := range all {
		for _, t := range q.Tags() {
			i, ok := index[t]
			if !ok {
				i = len(counts)
				index[t] = i
				counts = append(counts, TagCount{Tag: t})
			}

			counts[i].Count++
		}
	}

	slices.SortStableFunc(counts, func(a, b TagCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}

	if counts == nil {
		counts = []TagCount{}
	}

	return counts, nil
}

// Search returns quotes whose title, description, or category contains query,
// ignoring case. A blank query matches nothing.
func (s *QuoteService) Search(ctx context.Context, query string) (qs []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("search", start, err) }(time.Now())

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []*domain.Quote{}, nil
	}

	return s.filterAll(ctx, func(q *domain.Quote) bool {
		return strings.Contains(strings.ToLower(q.Title), needle) ||
			strings.Contains(strings.ToLower(q.Description), needle) ||
			strings.Contains(strings.ToLower(q.Category), needle)
	})
}

// ArchiveInactive moves every INACTIVE quote to ARCHIVED and returns how many changed.
func (s *QuoteService) ArchiveInactive(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { s.metrics.observe("archive_inactive", start, err) }(time.Now())

	n, err = s.repo.UpdateStatus(ctx, domain.StatusInactive, domain.StatusArchived)
	if err != nil {
		return 0, fmt.Errorf("archiving inactive quotes: %w", err)
	}

	if n > 0 {
		logging.FromContext(ctx).InfoContext(ctx, "archived inactive quotes", slog.Int("count", n))
	}

	return n, nil
}

func (s *QuoteService) filterAll(ctx context.Context, match func(*domain.Quote) bool) ([]*domain.Quote, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Quote, 0, len(all))
	for _, q := range all {
		if match(q) {
			out = append(out, q)
		}
	}

	return out, nil
}

func (s *QuoteService) refreshStored(ctx context.Context) {
	if s.metrics == nil {
		return
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "counting quotes for metrics", slog.Any("error", err))
		return
	}

	s.metrics.setStored(n)
}
