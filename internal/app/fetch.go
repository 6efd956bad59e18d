package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-service/internal/domain"
	"github.com/jsamuelsen/quote-service/internal/ports"
)

// fetched is the outcome of one remote fetch.
type fetched struct {
	quote *domain.Quote
	err   error
}

// fetchRandom asks source for n quotes with at most limit requests in
// flight. A failed fetch does not cancel the others, but once ctx is done
// the fetches still waiting for a slot record ctx's error without calling
// the source.
func fetchRandom(ctx context.Context, source ports.QuoteSource, n, limit int) []fetched {
	out := make([]fetched, n)

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].err = err
				return nil
			}

			out[i].quote, out[i].err = source.RandomQuote(ctx)

			return nil
		})
	}

	_ = g.Wait()

	return out
}
