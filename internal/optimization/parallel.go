package optimization

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// EvaluateAll evaluates the objective at every point using a bounded
// worker pool. Each worker must receive work that shares no mutable
// state with the others; the objective adapter guarantees this by
// cloning the design per call. The first evaluator error aborts the
// batch and is returned unmodified.
func EvaluateAll(ctx context.Context, obj ObjectiveFunction, points [][]float64, workers int) ([]float64, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(points) {
		workers = len(points)
	}

	values := make([]float64, len(points))
	idx := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		failed   atomic.Bool
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Keep draining after a failure so the dispatcher never
			// blocks on a channel with no receivers.
			for i := range idx {
				if failed.Load() {
					continue
				}
				v, err := obj(points[i])
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					failed.Store(true)
					continue
				}
				values[i] = v
			}
		}()
	}

	dispatch := func() error {
		defer close(idx)
		for i := range points {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case idx <- i:
			}
		}
		return nil
	}
	ctxErr := dispatch()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if ctxErr != nil {
		return nil, ctxErr
	}
	return values, nil
}
