package core

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AnalyzeBatch scores texts concurrently with at most workers goroutines.
// Results are returned in input order. Scoring itself never fails; the only
// error is cancellation of parent, in which case partial results are discarded.
func (s *Scorer) AnalyzeBatch(parent context.Context, texts []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(texts))
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(workers)

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.AnalyzeCrisis(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
