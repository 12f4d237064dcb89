package normalization

import (
	"time"

	"grid-strategy-lab/internal/domain"
)

// FilterBars returns the bars whose calendar day falls inside [start, end],
// both bounds inclusive. A zero bound leaves that side open. Input order is
// preserved.
func FilterBars(bars []*domain.PriceBar, start, end time.Time) []*domain.PriceBar {
	var out []*domain.PriceBar
	for _, b := range bars {
		if inWindow(DayOf(b.Timestamp), start, end) {
			out = append(out, b)
		}
	}
	return out
}

// FilterPoints returns the daily points dated inside [start, end], both
// bounds inclusive. A zero bound leaves that side open.
func FilterPoints(points []*domain.PricePoint, start, end time.Time) []*domain.PricePoint {
	var out []*domain.PricePoint
	for _, p := range points {
		if inWindow(p.Date, start, end) {
			out = append(out, p)
		}
	}
	return out
}

func inWindow(day, start, end time.Time) bool {
	if !start.IsZero() && day.Before(DayOf(start)) {
		return false
	}
	if !end.IsZero() && day.After(DayOf(end)) {
		return false
	}
	return true
}
