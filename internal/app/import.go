package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-service/internal/domain"
	"github.com/jsamuelsen/quote-service/internal/platform/logging"
)

// importResult is what survives the verify step: quotes worth storing plus
// a count of the ones dropped along the way.
type importResult struct {
	quotes  []*domain.Quote
	dropped int
}

// ImportRandom fetches count random quotes from the remote source and saves
// the ones that pass validation. It fails only when nothing could be fetched.
//
// The fetches run concurrently, bounded by the configured import concurrency.
func (s *QuoteService) ImportRandom(ctx context.Context, count int) (imported []*domain.Quote, err error) {
	defer func(start time.Time) { s.metrics.observe("import_random", start, err) }(time.Now())

	var stored []*domain.Quote

	op := Operation[int, []fetched, importResult, []*domain.Quote]{
		Name: "import_random",
		Validate: func(_ context.Context, n int) error {
			if s.source == nil {
				return domain.NewUnavailableError("quote-source", "import is not configured")
			}

			if n < 1 || n > s.maxImport {
				return domain.NewValidationErrorWithValue("count",
					fmt.Sprintf("must be between 1 and %d", s.maxImport), n)
			}

			return nil
		},
		Perform: func(ctx context.Context, n int) ([]fetched, error) {
			return fetchRandom(ctx, s.source, n, s.importConcurrency), nil
		},
		Verify: func(ctx context.Context, _ int, results []fetched) (importResult, error) {
			return s.verifyImported(ctx, results)
		},
		Archive: func(ctx context.Context, _ int, verified importResult) error {
			saved, err := s.repo.SaveAll(ctx, verified.quotes)
			if err != nil {
				return err
			}

			stored = saved

			return nil
		},
		Respond: func(ctx context.Context, _ int, verified importResult) ([]*domain.Quote, error) {
			s.refreshStored(ctx)
			logging.FromContext(ctx).InfoContext(ctx, "imported quotes",
				slog.Int("imported", len(stored)),
				slog.Int("dropped", verified.dropped),
			)

			return stored, nil
		},
	}

	return Execute(ctx, s.executor, op, count)
}

func (s *QuoteService) verifyImported(ctx context.Context, results []fetched) (importResult, error) {
	var (
		out     importResult
		lastErr error
		seen    = make(map[string]bool, len(results))
	)

	for _, r := range results {
		s.metrics.fetched(r.err)

		if r.err != nil {
			lastErr = r.err
			out.dropped++

			continue
		}

		if err := s.ValidateQuote(r.quote); err != nil {
			s.logger.DebugContext(ctx, "dropping invalid remote quote", slog.Any("error", err))
			out.dropped++

			continue
		}

		// The source may hand back the same quote twice in one batch.
		key := r.quote.Title + "\x00" + r.quote.Author
		if seen[key] {
			out.dropped++
			continue
		}

		seen[key] = true

		q := r.quote.Clone()
		q.ID = 0
		q.Touch()
		out.quotes = append(out.quotes, q)
	}

	if len(out.quotes) == 0 {
		if lastErr != nil {
			return out, lastErr
		}

		return out, domain.NewUnavailableError("quote-source", "no valid quotes returned by source")
	}

	return out, nil
}
