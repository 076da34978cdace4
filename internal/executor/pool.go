// Package executor runs batches of independent work items on a bounded pool
// of goroutines.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/specialistvlad/railmap/internal/ctxlog"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 2

// Pool drains a shared queue of item indexes with a fixed number of workers.
type Pool struct {
	Workers int
}

// ItemError records the failure of one work item.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Run calls fn for every index in [0, n). Item failures do not stop the
// batch; they are joined into the returned error. Cancelling ctx stops
// workers from taking new items and Run then returns ctx.Err() joined with
// any item errors.
func (p Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > n {
		workers = n
	}
	if n <= 0 {
		return nil
	}

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.worker(ctx, workerID, queue, fn, func(err error) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			})
		}(w)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append([]error{err}, errs...)
	}
	return errors.Join(errs...)
}

// worker is the processing loop of a single worker.
func (p Pool) worker(ctx context.Context, workerID int, queue <-chan int, fn func(context.Context, int) error, report func(error)) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)
	for i := range queue {
		if ctx.Err() != nil {
			break
		}
		if err := p.runItem(ctx, i, fn); err != nil {
			logger.Debug("Work item failed.", "workerID", workerID, "item", i, "error", err)
			report(&ItemError{Index: i, Err: err})
		}
		// Yield between items so long batches share the scheduler.
		runtime.Gosched()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (p Pool) runItem(ctx context.Context, i int, fn func(context.Context, int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, i)
}
