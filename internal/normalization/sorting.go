package normalization

import (
	"sort"

	"grid-strategy-lab/internal/domain"
)

// SortBars orders bars by timestamp ascending. The sort is stable so that
// same-timestamp samples keep their source order and the LAST-wins daily
// reduction stays deterministic.
func SortBars(bars []*domain.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}
