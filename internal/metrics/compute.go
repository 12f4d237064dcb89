// Package metrics derives performance figures from a daily portfolio value
// trace. All functions are total: degenerate input yields the documented
// fallback value instead of an error, so the parameter sweep can compare
// thousands of pairs without branching on failures.
package metrics

import (
	"math"

	"grid-strategy-lab/internal/domain"
)

// Annualization constants.
const (
	calendarDaysPerYear = 365 // exponent base for annualized return
	tradingDaysPerYear  = 252 // scaling for the Sharpe ratio
)

// Performance holds the metrics derived from one daily value trace.
type Performance struct {
	TotalReturn  float64 // (final - initial) / initial
	AnnualReturn float64 // (1+total)^(365/days) - 1
	MaxDrawdown  float64 // worst decline from the running peak, <= 0
	SharpeRatio  float64 // mean/stddev of daily changes * sqrt(252)
}

// Compute derives all trace metrics from daily snapshots in date order.
// An empty trace yields the zero Performance.
func Compute(snapshots []*domain.DailySnapshot) Performance {
	var perf Performance
	if len(snapshots) == 0 {
		return perf
	}

	values := make([]float64, len(snapshots))
	for i, s := range snapshots {
		values[i] = s.TotalValue
	}

	perf.TotalReturn = totalReturn(values)
	perf.AnnualReturn = annualReturn(perf.TotalReturn, len(values))
	perf.MaxDrawdown = computeMaxDrawdown(values)
	perf.SharpeRatio = sharpeRatio(dailyChanges(values))
	return perf
}

// StockReturn computes the buy-and-hold return over a daily price series:
// (last close - first close) / first close. Fewer than two points yields 0.
func StockReturn(points []*domain.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	first := points[0].Close
	if first == 0 {
		return 0
	}
	return (points[len(points)-1].Close - first) / first
}

// totalReturn computes (final - initial) / initial over the trace values.
func totalReturn(values []float64) float64 {
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	return (values[len(values)-1] - values[0]) / values[0]
}

// annualReturn annualizes a total return over the simulated calendar days:
// (1 + total)^(365/days) - 1. A zero-day trace yields 0.
func annualReturn(total float64, days int) float64 {
	if days == 0 {
		return 0
	}
	return math.Pow(1+total, calendarDaysPerYear/float64(days)) - 1
}

// computeMaxDrawdown calculates the worst decline from the running peak,
// as a non-positive fraction of that peak. 0 when the trace never dips.
func computeMaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDrawdown := 0.0

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return maxDrawdown
}

// sharpeRatio computes mean/stddev of daily changes scaled by sqrt of a
// trading year. Yields 0 when fewer than 2 observations exist or the
// changes have zero variance.
func sharpeRatio(changes []float64) float64 {
	if len(changes) < 2 {
		return 0
	}
	mean := computeMean(changes)
	stddev := computeStddev(changes, mean)
	if stddev == 0 {
		return 0
	}
	return mean / stddev * math.Sqrt(tradingDaysPerYear)
}

// dailyChanges returns day-over-day fractional changes of the trace.
// The first day has no prior value and produces no observation; a zero
// prior value is skipped rather than divided by.
func dailyChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		changes = append(changes, (values[i]-prev)/prev)
	}
	return changes
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}
