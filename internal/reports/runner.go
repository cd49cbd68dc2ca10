package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salesmart/martreport/internal/db"
)

// Outcome holds the result of running one report.
type Outcome struct {
	Name     string
	Result   *Result
	Duration time.Duration
	Err      error
}

// RunAll executes every registered report concurrently against the same
// database, bounded by opts.Concurrency. Reports are independent pure
// reads, so one report failing does not cancel the others; each outcome
// carries its own error.
func RunAll(ctx context.Context, q db.Querier, opts Options) []Outcome {
	defs := All()
	outcomes := make([]Outcome, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, def := range defs {
		g.Go(func() error {
			start := time.Now()
			res, err := def.Run(ctx, q, opts)
			outcomes[i] = Outcome{
				Name:     def.Name,
				Result:   res,
				Duration: time.Since(start),
				Err:      err,
			}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
