package sweep

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/simulation"
)

// Options contains configuration for creating an Optimizer.
type Options struct {
	Bounds      domain.SweepBounds
	InitialCash float64

	// Workers is the number of simulation goroutines. Defaults to
	// runtime.NumCPU() when <= 0.
	Workers int

	// Progress, when set, is called after every attempted pair with the
	// running done count and the grid total. Workers call it concurrently,
	// so it must be safe for concurrent use.
	Progress func(done, total int)
}

// Optimizer sweeps the parameter grid over one daily price series.
type Optimizer struct {
	sim  *simulation.Simulator
	opts Options
}

// New creates an Optimizer over a date-sorted daily series.
func New(points []*domain.PricePoint, opts Options) *Optimizer {
	return &Optimizer{sim: simulation.New(points), opts: opts}
}

// pairResult is one worker's output for a single enumerated pair.
type pairResult struct {
	params domain.GridParams
	result *domain.StrategyResult // nil when the pair did not simulate
	err    error
}

// Optimize enumerates the grid (up_ratio outer, down_ratio inner), runs
// every viable pair and reduces to the best excess return. Pairs with a
// non-positive ratio are never simulated; pairs the simulator rejects as
// degenerate or data-starved are skipped. Both still count as attempted.
//
// Pairs are distributed over worker goroutines through a jobs channel;
// each worker writes into its pair's slot of a pre-sized results slice, and
// the reduction scans that slice in enumeration order. Ties on excess
// return therefore resolve to the first pair in enumeration order no matter
// how many workers ran. Cancellation is honored between simulations.
func (o *Optimizer) Optimize(ctx context.Context) (*domain.OptimizationResult, error) {
	if err := o.opts.Bounds.Validate(); err != nil {
		return nil, err
	}

	upAxis := BuildAxis(o.opts.Bounds.MinUp, o.opts.Bounds.MaxUp, o.opts.Bounds.Step)
	downAxis := BuildAxis(o.opts.Bounds.MinDown, o.opts.Bounds.MaxDown, o.opts.Bounds.Step)
	total := len(upAxis) * len(downAxis)

	out := &domain.OptimizationResult{Rows: make([]*domain.SweepRow, 0, total)}
	if total == 0 {
		return out, nil
	}

	workers := o.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	results := make([]pairResult, total)
	jobs := make(chan int)

	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				o.runPair(idx, upAxis, downAxis, results)
				if o.opts.Progress != nil {
					o.opts.Progress(int(done.Add(1)), total)
				}
			}
		}()
	}

	var feedErr error
feed:
	for idx := 0; idx < total; idx++ {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			feedErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if feedErr != nil {
		return nil, feedErr
	}

	// Reduce in enumeration order so ties keep the first pair
	for i := range results {
		out.Attempted++
		r := results[i]

		if r.err != nil {
			if errors.Is(r.err, simulation.ErrInsufficientData) || errors.Is(r.err, simulation.ErrDegenerateParams) {
				out.Skipped++
				continue
			}
			return nil, r.err
		}
		if r.result == nil {
			out.Skipped++
			continue
		}

		out.Simulated++
		out.Rows = append(out.Rows, rowFrom(r.result))

		if out.Best == nil || r.result.ExcessReturn > out.Best.ExcessReturn {
			out.Best = r.result
			params := r.params
			out.BestParams = &params
		}
	}
	return out, nil
}

// runPair simulates the pair at enumeration index idx into its results slot.
func (o *Optimizer) runPair(idx int, upAxis, downAxis []float64, results []pairResult) {
	params := domain.GridParams{
		UpRatio:     upAxis[idx/len(downAxis)],
		DownRatio:   downAxis[idx%len(downAxis)],
		InitialCash: o.opts.InitialCash,
	}
	results[idx].params = params

	if params.UpRatio <= 0 || params.DownRatio <= 0 {
		return
	}

	result, err := o.sim.Run(params)
	if err != nil {
		results[idx].err = err
		return
	}
	results[idx].result = result
}

// rowFrom flattens a simulation result into its sweep table row.
func rowFrom(r *domain.StrategyResult) *domain.SweepRow {
	return &domain.SweepRow{
		UpRatio:      r.UpRatio,
		DownRatio:    r.DownRatio,
		ExcessReturn: r.ExcessReturn,
		TotalReturn:  r.TotalReturn,
		StockReturn:  r.StockReturn,
		AnnualReturn: r.AnnualReturn,
		MaxDrawdown:  r.MaxDrawdown,
		SharpeRatio:  r.SharpeRatio,
		TotalTrades:  r.TotalTrades,
		BuyTrades:    r.BuyTrades,
		SellTrades:   r.SellTrades,
	}
}
