// Package marketdata acquires historical price bars. The hs-history quote
// API, local CSV cache files and a synthetic generator all sit behind one
// Source interface, so callers never know where bars came from.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"grid-strategy-lab/internal/domain"
)

// Source supplies historical price bars for one request window.
type Source interface {
	FetchBars(ctx context.Context, req FetchRequest) ([]*domain.PriceBar, error)
}

// FetchRequest describes one bar window. Both dates are inclusive.
type FetchRequest struct {
	Symbol    string // numeric code without venue, e.g. "000001"
	Market    string // venue code, SZ or SH
	Frequency domain.Frequency
	Adjust    domain.Adjust
	StartDate time.Time
	EndDate   time.Time
}

// QualifiedSymbol returns the exchange-qualified code, e.g. "000001.SZ".
func (r FetchRequest) QualifiedSymbol() string {
	return fmt.Sprintf("%s.%s", r.Symbol, r.Market)
}

// EffectiveAdjust returns the adjust mode the quote API will actually
// serve: intraday frequencies are only available unadjusted.
func (r FetchRequest) EffectiveAdjust() domain.Adjust {
	if r.Frequency.Intraday() {
		return domain.AdjustNone
	}
	return r.Adjust
}
