// Package worker provides a generic, bounded worker pool.
//
// A Pool runs a fixed number of goroutines over a buffered queue of work
// items of type T. Submit is non-blocking and returns ErrQueueFull when the
// queue is at capacity; SubmitWait blocks until there is room or the context
// is done. The loader uses SubmitWait together with its own in-flight window
// so producers apply backpressure instead of dropping samples.
//
//	pool := worker.NewPool(4, 16,
//	    func(ctx context.Context, job fetchJob) error {
//	        return job.run(ctx)
//	    },
//	    worker.WithErrorHandler(func(job fetchJob, err error) {
//	        job.fail(err)
//	    }),
//	)
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
// # Lifecycle
//
// Start may be called once. Workers exit when the Start context is done or
// when Stop closes the queue and it has drained. Stop is idempotent and
// returns ErrStopTimeout if workers are still busy when the timeout expires.
// Submitting after Stop returns ErrPoolStopped.
//
// # Failures
//
// A processor error or panic is counted in PoolStats.Failed and handed to the
// WithErrorHandler callback along with the work item. Panics are converted
// into errors wrapping ErrWorkerPanic so one bad item never takes down the
// process.
//
// # Observability
//
// Stats are always tracked with atomics. WithMetricsRegistry additionally
// registers prefix_* Prometheus metrics (queue depth, busy workers,
// submitted, processed, failed, dropped, processing duration) under the
// "worker_pool" service.
package worker
