package assets

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one fetch in a batch.
type Result struct {
	Asset *Asset
	Err   error
}

// FetchAll fetches every uri concurrently, at most limit at a time, and
// returns the results in input order. Individual failures do not cancel
// the other fetches. An empty uri yields a zero Result.
func (f *Fetcher) FetchAll(ctx context.Context, uris []string, limit int) []Result {
	results := make([]Result, len(uris))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, uri := range uris {
		if uri == "" {
			continue
		}
		g.Go(func() error {
			a, err := f.Fetch(ctx, uri)
			results[i] = Result{Asset: a, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
