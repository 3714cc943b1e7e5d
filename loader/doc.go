// Package loader iterates a dataset.Source in batches, loading samples on a
// worker pool and collating them with a batch.Builder.
//
// Each call to Iterate starts a new pass. The pass dispatches sample indices
// in a fixed order: sequential, or, with Shuffle, a permutation drawn from a
// PCG source seeded by (Seed, pass). Workers call Source.Get concurrently
// and the iterator reassembles their results in dispatch order, so the
// batches of a pass depend only on the source, the seed and the batch size,
// never on worker timing.
//
//	l, err := loader.New(ds, &batch.Builder{Policy: batch.Plain()}, loader.Config{
//	    BatchSize: 32,
//	    Shuffle:   true,
//	    Seed:      1,
//	})
//	if err != nil {
//	    return err
//	}
//	it := l.Iterate(ctx)
//	defer it.Close()
//	for {
//	    b, err := it.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    train(b)
//	}
//
// # Backpressure
//
// At most Prefetch*BatchSize samples are loaded ahead of the consumer. A slow
// consumer stalls dispatch instead of growing memory.
//
// # Failures
//
// The first sample error ends the pass: Next returns it, and keeps returning
// it. With SkipRejected, samples failing with errors.ErrFiltered or
// errors.ErrMalformedRecord are dropped from their batch instead; a batch
// whose samples were all dropped is omitted. Worker panics surface as errors
// wrapping worker.ErrWorkerPanic.
//
// # Cancellation
//
// Cancelling the Iterate context or calling Close stops dispatch and waits
// up to StopTimeout for in-flight loads to return.
package loader
