// Package fanout runs independent calls concurrently and waits for all of
// them to settle.
package fanout

import (
	"context"
	"errors"
	"sync"
)

// Settle calls fn once per index in [0, n) on its own goroutine and returns
// the per-index errors after every call has returned. fn receives a context
// that keeps ctx's values but is never cancelled: a call that has been issued
// always runs to completion.
func Settle(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(detached, i)
		}(i)
	}
	wg.Wait()
	return errs
}

// Failed returns the indexes whose error is non-nil, in index order.
func Failed(errs []error) []int {
	var out []int
	for i, err := range errs {
		if err != nil {
			out = append(out, i)
		}
	}
	return out
}

// Join combines the non-nil errors, so errors.Is and errors.As match any of
// them. It returns nil when every call succeeded.
func Join(errs []error) error {
	return errors.Join(errs...)
}
