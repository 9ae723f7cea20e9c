// Package fetch downloads and extracts candidate documents with bounded
// concurrency and early stop.
package fetch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight bounds concurrent operations when the caller passes a
// non-positive limit.
const DefaultMaxInFlight = 5

type raceResult[R any] struct {
	val R
	err error
}

// Race launches fn over items with at most maxInFlight running concurrently,
// consumes results in completion order, and stops as soon as target
// successes have been collected. Remaining operations are cancelled through
// the derived context and their outcomes discarded. When fewer than target
// items succeed the partial result is returned; Race never fails.
func Race[T, R any](ctx context.Context, items []T, target, maxInFlight int, fn func(context.Context, T) (R, error)) []R {
	if len(items) == 0 || target < 1 {
		return nil
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(maxInFlight))
	// Buffered to item count so abandoned workers never block on send.
	results := make(chan raceResult[R], len(items))

	for _, item := range items {
		go func(item T) {
			if err := sem.Acquire(raceCtx, 1); err != nil {
				results <- raceResult[R]{err: err}
				return
			}
			defer sem.Release(1)

			val, err := fn(raceCtx, item)
			results <- raceResult[R]{val: val, err: err}
		}(item)
	}

	collected := make([]R, 0, target)
	for received := 0; received < len(items); received++ {
		select {
		case res := <-results:
			if res.err != nil {
				continue
			}
			collected = append(collected, res.val)
			if len(collected) >= target {
				return collected
			}
		case <-ctx.Done():
			return collected
		}
	}
	return collected
}
