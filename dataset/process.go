package dataset

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/c360/graphbatch/errors"
)

// ProcessResult counts the outcome of an eager pass.
type ProcessResult struct {
	Materialized int
	Filtered     int
	Malformed    int
}

// Process materializes every sample with the given number of workers so
// later Gets are served from the durable store. Filtered samples are
// counted, never failed. Malformed samples fail the pass unless
// Config.SkipMalformed is set.
func (d *Dataset) Process(ctx context.Context, workers int) (ProcessResult, error) {
	if workers <= 0 {
		workers = 1
	}
	var materialized, rejected, malformed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < d.Len(); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := d.materialize(gctx, i)
			switch {
			case err == nil:
				materialized.Add(1)
			case stderrors.Is(err, errors.ErrFiltered):
				rejected.Add(1)
			case stderrors.Is(err, errors.ErrMalformedRecord) && d.cfg.SkipMalformed:
				malformed.Add(1)
				d.logger.Warn("Skipping malformed record", "index", i, "error", err)
			default:
				return err
			}
			return nil
		})
	}
	err := g.Wait()

	res := ProcessResult{
		Materialized: int(materialized.Load()),
		Filtered:     int(rejected.Load()),
		Malformed:    int(malformed.Load()),
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return res, errors.Wrap(err, "dataset", "Process", "materialize samples")
	}
	d.logger.Info("Dataset processed",
		"materialized", res.Materialized, "filtered", res.Filtered, "malformed", res.Malformed)
	return res, nil
}
