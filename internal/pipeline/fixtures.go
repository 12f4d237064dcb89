package pipeline

import (
	"context"
	"time"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/marketdata"
)

// Demo seed defaults.
const (
	DemoSymbol = "000001"
	DemoMarket = "SZ"
)

// demoClock pins the demo run header and artifacts to a fixed instant.
var demoClock = time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

// DemoRequest returns the request the demo seed runs: one calendar year of
// synthetic daily bars with a coarse 5x5 parameter grid.
func DemoRequest() Request {
	return Request{
		Fetch: marketdata.FetchRequest{
			Symbol:    DemoSymbol,
			Market:    DemoMarket,
			Frequency: domain.FrequencyDaily,
			Adjust:    domain.AdjustNone,
			StartDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
		},
		InitialCash: 100000,
		Bounds:      domain.SweepBounds{MinUp: 0.01, MaxUp: 0.05, MinDown: 0.01, MaxDown: 0.05, Step: 0.01},
	}
}

// SeedDemoRun executes DemoRequest against the given stores using the
// synthetic source and a fixed clock, so demos work without network access
// and produce the same run every time. Any Source in opts is replaced.
func SeedDemoRun(ctx context.Context, opts Options) (*RunSummary, error) {
	opts.Source = marketdata.NewStubSource()
	p := New(opts).WithClock(func() time.Time { return demoClock })
	return p.Run(ctx, DemoRequest())
}
