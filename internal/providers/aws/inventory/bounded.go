package awsinventory

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps in-flight per-item enrichment calls.
const DefaultConcurrency = 8

// forEachBounded calls fn(i) for every i in [0, n) with at most limit calls
// in flight. It stops starting new calls once ctx is done and waits for the
// running ones. fn must only write to state owned by index i.
func forEachBounded(ctx context.Context, n, limit int, fn func(i int)) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	sem := make(chan struct{}, limit)
	g, gctx := errgroup.WithContext(ctx)

ITEMS:
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}: // acquire slot
		case <-gctx.Done():
			break ITEMS
		}

		g.Go(func() error {
			defer func() { <-sem }()
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
