package backtest

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/backtester/market"
)

var errNoRunner = errors.New("backtest: job has no runner")

// Job is one independent backtest.
type Job struct {
	Name   string
	Frame  *market.Frame
	Runner *Runner
}

// BatchResult pairs a job with its outcome.
type BatchResult struct {
	Job    string
	Report Report
	Err    error
}

// RunBatch runs jobs with at most workers in flight. A failing job records
// its error without stopping the others. Results keep the order of jobs.
// onDone, if set, is called once per finished job, one call at a time.
func RunBatch(ctx context.Context, jobs []Job, workers int, onDone func(BatchResult)) ([]BatchResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(jobs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res := BatchResult{Job: job.Name}
			if err := gctx.Err(); err != nil {
				res.Err = err
			} else if job.Runner == nil {
				res.Err = errNoRunner
			} else {
				res.Report, res.Err = job.Runner.Run(gctx, job.Frame)
			}
			results[i] = res

			if onDone != nil {
				mu.Lock()
				onDone(res)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
