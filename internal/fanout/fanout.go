// Package fanout provides a settle-all concurrency combinator: a bounded
// fan-out over a set of keys where each task either contributes a result
// or is dropped. One task's failure never cancels its siblings.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Map runs fn for every key with at most limit concurrent goroutines and
// collects the successful results. Keys whose fn returns an error are
// simply absent from the returned map.
//
// Map returns once every task has settled. If ctx is cancelled, tasks
// that observe the cancellation fail individually; the map still holds
// whatever settled successfully before that.
func Map[K comparable, V any](ctx context.Context, keys []K, limit int, fn func(ctx context.Context, key K) (V, error)) map[K]V {
	if limit < 1 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		results = make(map[K]V, len(keys))
	)

	g := &errgroup.Group{}
	g.SetLimit(limit)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			val, err := fn(ctx, key)
			if err != nil {
				// Settle-all: failures are dropped, never propagated.
				return nil
			}
			mu.Lock()
			results[key] = val
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return results
}
