package reporting

import (
	"math"
	"time"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/simulation"
)

// RunReport bundles everything the renderers need for one sweep run.
// Best is nil when no parameter pair survived simulation; renderers
// that depend on it degrade to a "no viable result" form.
type RunReport struct {
	Run         *domain.SweepRun
	Best        *domain.StrategyResult
	Rows        []*domain.SweepRow
	GeneratedAt time.Time
}

// BestFromRun rebuilds the winning StrategyResult from persisted parts:
// the run header carries the headline metrics, the trade ledger and the
// daily snapshots carry the detail. Grid sizing is recomputed from the
// snapshot price range so a reloaded report matches the original one.
func BestFromRun(run *domain.SweepRun, trades []*domain.TradeRecord, snapshots []*domain.DailySnapshot) *domain.StrategyResult {
	if run == nil || !run.Viable() {
		return nil
	}
	res := &domain.StrategyResult{
		UpRatio:     *run.BestUpRatio,
		DownRatio:   *run.BestDownRatio,
		InitialCash: run.InitialCash,
		Trades:      trades,
		Snapshots:   snapshots,
	}
	if run.BestTotalReturn != nil {
		res.TotalReturn = *run.BestTotalReturn
	}
	if run.BestAnnualReturn != nil {
		res.AnnualReturn = *run.BestAnnualReturn
	}
	if run.BestMaxDrawdown != nil {
		res.MaxDrawdown = *run.BestMaxDrawdown
	}
	if run.BestSharpeRatio != nil {
		res.SharpeRatio = *run.BestSharpeRatio
	}
	if run.BestStockReturn != nil {
		res.StockReturn = *run.BestStockReturn
	}
	if run.BestExcessReturn != nil {
		res.ExcessReturn = *run.BestExcessReturn
	}
	if run.BestTotalTrades != nil {
		res.TotalTrades = *run.BestTotalTrades
	}
	for _, tr := range trades {
		switch tr.Side {
		case domain.SideBuy:
			res.BuyTrades++
		case domain.SideSell:
			res.SellTrades++
		}
	}
	if len(snapshots) > 0 {
		last := snapshots[len(snapshots)-1]
		res.FinalCash = last.Cash
		res.FinalStockValue = last.StockValue
		res.FinalTotalValue = last.TotalValue
		res.GridCount, res.GridCash = gridSizing(run, snapshots)
	}
	return res
}

// gridSizing mirrors the simulation engine: price range over the window
// divided by the first close times the smaller ratio, floored at the
// engine's minimum slice count.
func gridSizing(run *domain.SweepRun, snapshots []*domain.DailySnapshot) (int, float64) {
	lo, hi := snapshots[0].Price, snapshots[0].Price
	for _, s := range snapshots[1:] {
		lo = math.Min(lo, s.Price)
		hi = math.Max(hi, s.Price)
	}
	count := simulation.MinGridCount
	step := snapshots[0].Price * math.Min(*run.BestUpRatio, *run.BestDownRatio)
	if step > 0 {
		if n := int((hi - lo) / step); n > count {
			count = n
		}
	}
	return count, run.InitialCash / float64(count)
}
