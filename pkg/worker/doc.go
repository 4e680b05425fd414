// Package worker implements a generic bounded worker pool.
//
// A Pool[T] runs a fixed number of workers draining a bounded queue of
// work items of type T through a processor function. Submission is
// non-blocking: when the queue is full, Submit returns ErrQueueFull and
// the item is dropped. This favors a fresh-data-over-complete-data
// policy; a point read scheduled for the next tick will resample the
// live value anyway, so dropping stale work is preferable to backing up
// the scheduler.
//
// Example:
//
//	pool := worker.NewPool(8, 256, func(ctx context.Context, job pollJob) error {
//	    return readPoint(ctx, job)
//	})
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(job); errors.Is(err, worker.ErrQueueFull) {
//	    // dropped, next tick will retry
//	}
package worker
