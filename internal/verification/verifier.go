// Package verification replays stored sweep runs against the cached bars
// and checks that the persisted best-pair metrics still reproduce.
package verification

import (
	"context"
	"math"

	"grid-strategy-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons between stored
// and replayed metrics.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string            // verified run ID
	Match          bool              // true if all fields match
	Divergences    []FieldDivergence // list of divergent fields
	StoredExcess   float64           // excess return from the stored run, 0 when none
	ReplayedExcess float64           // excess return from the replayed simulation, 0 when none
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int                  // total runs verified
	MatchedRuns   int                  // runs that matched
	DivergentRuns int                  // runs with divergences
	Results       []VerificationResult // individual results
}

// Verifier interface for sweep run replay verification.
type Verifier interface {
	// VerifyRun verifies a single run by ID. It loads the stored run
	// header, re-reduces the cached bars for its window, re-simulates the
	// stored best parameters and compares the headline metrics.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifySymbol verifies every stored run for a symbol.
	// Returns a report with individual results.
	VerifySymbol(ctx context.Context, symbol string) (*VerificationReport, error)
}

// CompareRun compares a stored run header against a replayed best result
// and returns divergences. replayed is nil when the replay produced no
// viable simulation; a run that stored no best matches exactly that.
// Uses FloatTolerance for float64 comparisons.
func CompareRun(stored *domain.SweepRun, replayed *domain.StrategyResult) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Viable() != (replayed != nil) {
		divergences = append(divergences, FieldDivergence{
			Field:    "BestResult",
			Expected: viability(stored.Viable()),
			Actual:   viability(replayed != nil),
		})
		return divergences
	}
	if replayed == nil {
		// Both found nothing
		return nil
	}

	divergences = compareFloatField(divergences, "BestUpRatio", stored.BestUpRatio, replayed.UpRatio)
	divergences = compareFloatField(divergences, "BestDownRatio", stored.BestDownRatio, replayed.DownRatio)
	divergences = compareFloatField(divergences, "BestTotalReturn", stored.BestTotalReturn, replayed.TotalReturn)
	divergences = compareFloatField(divergences, "BestAnnualReturn", stored.BestAnnualReturn, replayed.AnnualReturn)
	divergences = compareFloatField(divergences, "BestMaxDrawdown", stored.BestMaxDrawdown, replayed.MaxDrawdown)
	divergences = compareFloatField(divergences, "BestSharpeRatio", stored.BestSharpeRatio, replayed.SharpeRatio)
	divergences = compareFloatField(divergences, "BestStockReturn", stored.BestStockReturn, replayed.StockReturn)
	divergences = compareFloatField(divergences, "BestExcessReturn", stored.BestExcessReturn, replayed.ExcessReturn)

	// Trade count must match exactly
	if stored.BestTotalTrades == nil {
		divergences = append(divergences, FieldDivergence{
			Field:    "BestTotalTrades",
			Expected: nil,
			Actual:   replayed.TotalTrades,
		})
	} else if *stored.BestTotalTrades != replayed.TotalTrades {
		divergences = append(divergences, FieldDivergence{
			Field:    "BestTotalTrades",
			Expected: *stored.BestTotalTrades,
			Actual:   replayed.TotalTrades,
		})
	}

	// One snapshot per simulated day, so the trace length is the day count
	if stored.DayCount != len(replayed.Snapshots) {
		divergences = append(divergences, FieldDivergence{
			Field:    "DayCount",
			Expected: stored.DayCount,
			Actual:   len(replayed.Snapshots),
		})
	}

	return divergences
}

// compareFloatField appends a divergence when a stored nullable metric is
// missing or outside tolerance of the replayed value.
func compareFloatField(divergences []FieldDivergence, field string, stored *float64, actual float64) []FieldDivergence {
	if stored == nil {
		return append(divergences, FieldDivergence{Field: field, Expected: nil, Actual: actual})
	}
	if !floatEquals(*stored, actual) {
		return append(divergences, FieldDivergence{Field: field, Expected: *stored, Actual: actual})
	}
	return divergences
}

func viability(viable bool) string {
	if viable {
		return "viable"
	}
	return "none"
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
