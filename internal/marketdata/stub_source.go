package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"grid-strategy-lab/internal/domain"
)

// Stub walk defaults.
const (
	StubBasePrice = 100.0
	StubSwing     = 0.12   // oscillation amplitude as a fraction of base
	StubDrift     = 0.0004 // per-bar upward drift fraction
	stubPeriod    = 23     // trading days per full oscillation
)

// StubSource generates a deterministic synthetic daily series so demos and
// tests run without network access or an API token. The walk oscillates
// around a slowly drifting base; the phase is seeded from the symbol, so
// different symbols stay distinguishable while repeated calls agree exactly.
type StubSource struct {
	BasePrice float64
	Swing     float64
	Drift     float64
}

// NewStubSource creates a stub source with the default walk parameters.
func NewStubSource() *StubSource {
	return &StubSource{BasePrice: StubBasePrice, Swing: StubSwing, Drift: StubDrift}
}

// FetchBars synthesizes one bar per weekday in the window.
func (s *StubSource) FetchBars(_ context.Context, req FetchRequest) ([]*domain.PriceBar, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("stub source requires explicit start and end dates")
	}

	phase := symbolPhase(req.QualifiedSymbol())

	var bars []*domain.PriceBar
	prevClose := 0.0
	i := 0
	for day := req.StartDate; !day.After(req.EndDate); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		base := s.BasePrice * (1 + s.Drift*float64(i))
		closePrice := base * (1 + s.Swing*math.Sin(phase+2*math.Pi*float64(i)/stubPeriod))
		openPrice := closePrice
		if prevClose > 0 {
			openPrice = prevClose
		}

		volume := 1e6 + 1e4*float64(i%17)
		bars = append(bars, &domain.PriceBar{
			Symbol:    req.QualifiedSymbol(),
			Frequency: req.Frequency,
			Adjust:    req.EffectiveAdjust(),
			Timestamp: day,
			Open:      openPrice,
			High:      math.Max(openPrice, closePrice) * 1.005,
			Low:       math.Min(openPrice, closePrice) * 0.995,
			Close:     closePrice,
			Volume:    volume,
			Amount:    closePrice * volume,
			PrevClose: prevClose,
			Suspended: false,
		})
		prevClose = closePrice
		i++
	}
	return bars, nil
}

// symbolPhase derives a stable oscillation phase in [0, 2π) from the symbol.
func symbolPhase(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 2 * math.Pi * float64(h.Sum32()) / float64(math.MaxUint32)
}

// Ensure StubSource implements Source
var _ Source = (*StubSource)(nil)
