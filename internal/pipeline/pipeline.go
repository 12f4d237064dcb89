// Package pipeline runs a sweep request end to end: acquire bars, reduce
// them to a daily series, sweep the parameter grid, persist the outcome and
// render the report artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/marketdata"
	"grid-strategy-lab/internal/normalization"
	"grid-strategy-lab/internal/observability"
	"grid-strategy-lab/internal/reporting"
	"grid-strategy-lab/internal/runid"
	"grid-strategy-lab/internal/storage"
	"grid-strategy-lab/internal/sweep"
)

// Options wires the pipeline's collaborators.
type Options struct {
	BarStore      storage.PriceBarStore
	RunStore      storage.SweepRunStore
	TradeStore    storage.TradeRecordStore
	PointStore    storage.SweepPointStore
	SnapshotStore storage.SnapshotStore

	// Source supplies bars when the cache has none for the window. May be
	// nil when every request is expected to hit the cache.
	Source marketdata.Source

	// Reports renders the artifact set after a run. Nil skips rendering.
	Reports *reporting.Generator

	// Workers is passed through to the sweep. Defaults to runtime.NumCPU().
	Workers int

	// Progress, when set, is called after every attempted pair. Workers
	// call it concurrently.
	Progress func(done, total int)

	Logger *log.Logger
}

// Request describes one sweep run end to end. Both dates are inclusive.
type Request struct {
	Fetch       marketdata.FetchRequest
	InitialCash float64
	Bounds      domain.SweepBounds
}

// RunID derives the deterministic identifier of the request, so repeating
// a request maps to the same stored run and the same artifact filenames.
func (r Request) RunID() string {
	return runid.New(runid.Request{
		Symbol:      r.Fetch.Symbol,
		Market:      r.Fetch.Market,
		Frequency:   r.Fetch.Frequency.String(),
		Adjust:      r.Fetch.EffectiveAdjust().String(),
		StartDate:   r.Fetch.StartDate.Format("20060102"),
		EndDate:     r.Fetch.EndDate.Format("20060102"),
		InitialCash: r.InitialCash,
		MinUp:       r.Bounds.MinUp,
		MaxUp:       r.Bounds.MaxUp,
		MinDown:     r.Bounds.MinDown,
		MaxDown:     r.Bounds.MaxDown,
		Step:        r.Bounds.Step,
	})
}

// RunSummary reports what one pipeline run did.
type RunSummary struct {
	RunID  string
	Symbol string

	Bars      int  // bars that entered the daily reduction
	Days      int  // daily points inside the window
	FromCache bool // bars came from the store, not the source

	// Sweep accounting
	Attempted int
	Simulated int
	Skipped   int

	Best       *domain.GridParams // nil when no pair simulated
	BestExcess float64

	// AlreadyStored is set when a run with this ID was persisted by an
	// earlier identical request. Artifacts still render.
	AlreadyStored bool

	Artifacts *reporting.Artifacts // nil when rendering is disabled
}

// Pipeline executes sweep requests against a fixed set of stores.
type Pipeline struct {
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

// New creates a Pipeline. The five stores are required; Source and Reports
// are optional.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[pipeline] ", log.LstdFlags)
	}
	return &Pipeline{
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic run headers and artifacts.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.now = clock
	if p.opts.Reports != nil {
		p.opts.Reports = p.opts.Reports.WithClock(clock)
	}
	return p
}

// Run executes the request: load or fetch bars, reduce to the daily series,
// sweep the grid, persist the run and render artifacts. A duplicate run ID
// is not an error; the summary reports AlreadyStored and artifacts still
// render from the fresh sweep.
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunSummary, error) {
	if err := req.Bounds.Validate(); err != nil {
		return nil, err
	}
	if req.InitialCash <= 0 {
		return nil, fmt.Errorf("initial_cash must be > 0, got %g", req.InitialCash)
	}

	summary := &RunSummary{RunID: req.RunID(), Symbol: req.Fetch.QualifiedSymbol()}
	p.logger.Printf("run %s: %s %s..%s", summary.RunID, summary.Symbol,
		req.Fetch.StartDate.Format("2006-01-02"), req.Fetch.EndDate.Format("2006-01-02"))

	// 1. Bars: cache first, source on miss
	bars, fromCache, err := p.loadBars(ctx, req)
	if err != nil {
		return nil, err
	}
	summary.Bars = len(bars)
	summary.FromCache = fromCache

	// 2. Daily series
	normalization.SortBars(bars)
	points := normalization.FilterPoints(normalization.ReduceDaily(bars), req.Fetch.StartDate, req.Fetch.EndDate)
	summary.Days = len(points)
	p.logger.Printf("run %s: %d bars -> %d trading days", summary.RunID, len(bars), len(points))

	// 3. Sweep
	started := time.Now()
	res, err := sweep.New(points, sweep.Options{
		Bounds:      req.Bounds,
		InitialCash: req.InitialCash,
		Workers:     p.opts.Workers,
		Progress:    p.opts.Progress,
	}).Optimize(ctx)
	if err != nil {
		observability.RecordSweep("error", time.Since(started).Seconds())
		return nil, err
	}
	observability.RecordSweep("ok", time.Since(started).Seconds())
	observability.AddSimulations(res.Simulated)

	summary.Attempted = res.Attempted
	summary.Simulated = res.Simulated
	summary.Skipped = res.Skipped
	if res.BestParams != nil {
		params := *res.BestParams
		summary.Best = &params
		summary.BestExcess = res.Best.ExcessReturn
		observability.SetBestExcessReturn(res.Best.ExcessReturn)
		p.logger.Printf("run %s: best up=%.3f down=%.3f excess=%.4f (%d/%d simulated)",
			summary.RunID, params.UpRatio, params.DownRatio, res.Best.ExcessReturn, res.Simulated, res.Attempted)
	} else {
		p.logger.Printf("run %s: no viable pair (%d attempted, %d skipped)",
			summary.RunID, res.Attempted, res.Skipped)
	}

	// 4. Persist
	run := p.buildRun(req, summary.RunID, len(points), res)
	stored, err := p.persist(ctx, run, res)
	if err != nil {
		return nil, err
	}
	summary.AlreadyStored = !stored

	// 5. Artifacts
	if p.opts.Reports != nil {
		artifacts, err := p.opts.Reports.Generate(&reporting.RunReport{Run: run, Best: res.Best, Rows: res.Rows})
		if err != nil {
			return nil, fmt.Errorf("render artifacts: %w", err)
		}
		observability.RecordReportGenerated()
		summary.Artifacts = artifacts
	}

	return summary, nil
}

// loadBars returns the window's bars from the cache, falling back to the
// source on a full miss. Fetched bars are cached before returning. The
// cache query extends one day past the window because intraday bars carry
// a time of day; the daily reduction trims by calendar day afterwards.
func (p *Pipeline) loadBars(ctx context.Context, req Request) ([]*domain.PriceBar, bool, error) {
	symbol := req.Fetch.QualifiedSymbol()
	adjust := req.Fetch.EffectiveAdjust()
	end := req.Fetch.EndDate.AddDate(0, 0, 1)

	cached, err := p.opts.BarStore.GetByRange(ctx, symbol, req.Fetch.Frequency, adjust, req.Fetch.StartDate, end)
	observability.RecordStorageOp("price_bars", "get_by_range", err)
	if err != nil {
		return nil, false, fmt.Errorf("read bar cache: %w", err)
	}
	if len(cached) > 0 {
		return cached, true, nil
	}

	if p.opts.Source == nil {
		return nil, false, fmt.Errorf("no cached bars for %s and no source configured", symbol)
	}

	bars, err := marketdata.FetchWithRetry(ctx, p.opts.Source, req.Fetch)
	if err != nil {
		observability.RecordFetch("error", 0)
		return nil, false, err
	}
	observability.RecordFetch("ok", len(bars))
	p.logger.Printf("fetched %d bars for %s", len(bars), symbol)

	err = p.opts.BarStore.SaveBatch(ctx, bars)
	observability.RecordStorageOp("price_bars", "save_batch", err)
	if err != nil {
		return nil, false, fmt.Errorf("cache bars: %w", err)
	}
	observability.RecordBarsCached(len(bars))
	return bars, false, nil
}

// buildRun assembles the persisted run header from the request and the
// sweep outcome.
func (p *Pipeline) buildRun(req Request, runID string, days int, res *domain.OptimizationResult) *domain.SweepRun {
	run := &domain.SweepRun{
		RunID:        runID,
		Symbol:       req.Fetch.QualifiedSymbol(),
		Frequency:    req.Fetch.Frequency,
		Adjust:       req.Fetch.EffectiveAdjust(),
		StartDate:    normalization.DayOf(req.Fetch.StartDate),
		EndDate:      normalization.DayOf(req.Fetch.EndDate),
		InitialCash:  req.InitialCash,
		MinUpRatio:   req.Bounds.MinUp,
		MaxUpRatio:   req.Bounds.MaxUp,
		MinDownRatio: req.Bounds.MinDown,
		MaxDownRatio: req.Bounds.MaxDown,
		StepSize:     req.Bounds.Step,
		DayCount:     days,
		Attempted:    res.Attempted,
		Simulated:    res.Simulated,
		Skipped:      res.Skipped,
		CreatedAt:    p.now(),
	}
	if best := res.Best; best != nil {
		run.BestUpRatio = &best.UpRatio
		run.BestDownRatio = &best.DownRatio
		run.BestTotalReturn = &best.TotalReturn
		run.BestAnnualReturn = &best.AnnualReturn
		run.BestMaxDrawdown = &best.MaxDrawdown
		run.BestSharpeRatio = &best.SharpeRatio
		run.BestStockReturn = &best.StockReturn
		run.BestExcessReturn = &best.ExcessReturn
		run.BestTotalTrades = &best.TotalTrades
	}
	return run
}

// persist writes the run header and its detail tables. A duplicate run ID
// means an identical request already stored this run; persistence is
// skipped without error so the caller can still render artifacts.
func (p *Pipeline) persist(ctx context.Context, run *domain.SweepRun, res *domain.OptimizationResult) (bool, error) {
	err := p.opts.RunStore.Save(ctx, run)
	observability.RecordStorageOp("sweep_runs", "save", err)
	if errors.Is(err, storage.ErrDuplicateKey) {
		p.logger.Printf("run %s already stored, skipping persistence", run.RunID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("save run: %w", err)
	}

	err = p.opts.PointStore.SaveBatch(ctx, run.RunID, res.Rows)
	observability.RecordStorageOp("sweep_points", "save_batch", err)
	if err != nil {
		return false, fmt.Errorf("save sweep rows: %w", err)
	}

	if res.Best != nil {
		err = p.opts.TradeStore.SaveAll(ctx, run.RunID, res.Best.Trades)
		observability.RecordStorageOp("trade_records", "save_all", err)
		if err != nil {
			return false, fmt.Errorf("save trades: %w", err)
		}

		err = p.opts.SnapshotStore.SaveBatch(ctx, run.RunID, res.Best.Snapshots)
		observability.RecordStorageOp("daily_snapshots", "save_batch", err)
		if err != nil {
			return false, fmt.Errorf("save snapshots: %w", err)
		}
	}
	return true, nil
}
