// Package normalization turns raw quote bars into the daily price series the
// simulation engine consumes: chronological ordering, calendar windowing and
// one-close-per-day reduction.
package normalization

import (
	"time"

	"grid-strategy-lab/internal/domain"
)

// ReduceDaily collapses bars into one PricePoint per calendar day.
// Bars must be pre-sorted by timestamp (see SortBars).
//
// Aggregation for same calendar date:
//   - close = LAST(close) by bar order
func ReduceDaily(bars []*domain.PriceBar) []*domain.PricePoint {
	if len(bars) == 0 {
		return nil
	}

	var result []*domain.PricePoint
	var current *domain.PricePoint

	for _, b := range bars {
		day := DayOf(b.Timestamp)
		if current == nil || !current.Date.Equal(day) {
			// Start new day
			if current != nil {
				result = append(result, current)
			}
			current = &domain.PricePoint{Date: day, Close: b.Close}
		} else {
			current.Close = b.Close // LAST(close)
		}
	}

	// Don't forget last day
	if current != nil {
		result = append(result, current)
	}

	return result
}

// DayOf truncates a timestamp to its calendar day at midnight UTC.
// The day is taken in the timestamp's own location, so an exchange-local
// bar lands on the exchange-local date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
