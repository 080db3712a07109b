package fn

import (
	"context"
	"sync"
)

// ParMapResult applies f to items on at most workers goroutines and returns
// the results in input order. Once ctx is done no new items are started;
// those left over fail with ctx.Err().
func ParMapResult[T, U any](ctx context.Context, items []T, workers int, f func(context.Context, T) Result[U]) []Result[U] {
	out := make([]Result[U], len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	cancelled := func(from int) []Result[U] {
		for j := from; j < len(items); j++ {
			out[j] = Err[U](ctx.Err())
		}
		wg.Wait()
		return out
	}
	for i, v := range items {
		if ctx.Err() != nil {
			return cancelled(i)
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return cancelled(i)
		}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			out[i] = f(ctx, v)
		}()
	}
	wg.Wait()
	return out
}
