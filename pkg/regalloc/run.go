package regalloc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/raymyers/minicc/pkg/logger"
	"github.com/raymyers/minicc/pkg/rtl"
)

// Run allocates every function of prog, up to opts.Jobs at a time. Each
// function is independent, so workers share nothing but the result slice,
// which they write at distinct indices.
func Run(ctx context.Context, prog *rtl.Program, opts Options) ([]*Result, error) {
	results := make([]*Result, len(prog.Functions))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, fn := range prog.Functions {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := AllocateFunction(fn, opts)
			if err != nil {
				return err
			}
			if err := Verify(fn, res.Graph, res); err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			logger.LogAllocation(fn.Name, opts.Strategy.String(), res.Rounds, res.Spills, res.Temps)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
