package domain

import "time"

// SweepRun represents the persisted header of one optimization run.
// Best* fields are nil when the sweep produced no viable result.
// Corresponds to sweep_runs table in PostgreSQL.
type SweepRun struct {
	RunID     string    // deterministic hash of the request, see runid
	Symbol    string    // exchange-qualified code
	Frequency Frequency // source bar interval
	Adjust    Adjust    // price adjustment mode
	StartDate time.Time // window start, midnight UTC
	EndDate   time.Time // window end, midnight UTC

	// Sweep request
	InitialCash  float64
	MinUpRatio   float64
	MaxUpRatio   float64
	MinDownRatio float64
	MaxDownRatio float64
	StepSize     float64

	// Outcome
	DayCount  int // daily points in the window
	Attempted int
	Simulated int
	Skipped   int

	BestUpRatio      *float64
	BestDownRatio    *float64
	BestTotalReturn  *float64
	BestAnnualReturn *float64
	BestMaxDrawdown  *float64
	BestSharpeRatio  *float64
	BestStockReturn  *float64
	BestExcessReturn *float64
	BestTotalTrades  *int

	CreatedAt time.Time
}

// Viable reports whether the run found a best parameter pair.
func (r *SweepRun) Viable() bool {
	return r.BestUpRatio != nil && r.BestDownRatio != nil
}
