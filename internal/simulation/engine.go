// Package simulation implements the grid trading engine. A Simulator walks a
// daily close series, selling one grid slice of the position when the close
// rises above the base price by the up ratio and buying one back when it
// falls below by the down ratio.
package simulation

import (
	"errors"
	"math"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/metrics"
)

// Simulation errors
var (
	// ErrInsufficientData marks a price window too short to trade on.
	// It is a skip signal, not a failure: the sweep counts it and moves on.
	ErrInsufficientData = errors.New("fewer than two daily prices in window")

	// ErrDegenerateParams marks parameters no grid can be built from.
	ErrDegenerateParams = errors.New("grid parameters are degenerate")
)

// MinGridCount floors the grid slice count so a narrow price range still
// produces a tradable grid.
const MinGridCount = 5

// Simulator replays grid strategies over one daily close series. It holds
// the series and nothing else, so a single instance serves any number of
// Run calls, concurrent ones included.
type Simulator struct {
	points []*domain.PricePoint
}

// New creates a Simulator over a date-sorted daily series.
func New(points []*domain.PricePoint) *Simulator {
	return &Simulator{points: points}
}

// Days returns the number of daily points the simulator trades over.
func (s *Simulator) Days() int {
	return len(s.points)
}

// Run replays the strategy day by day and returns the complete result.
//
// The grid is sized once from the whole window: slice count is the price
// range divided by the first close times the smaller ratio, floored at
// MinGridCount. Half the starting cash converts to shares at the first
// close so both triggers are live from day one; that opening conversion is
// initial state, not a trade, and never appears in the ledger. Each day
// fires at most one trigger: a sell moves one grid slice of cash out of the
// position when the close rises up_ratio above the base price, a buy moves
// one back in when it falls down_ratio below, and every executed trade
// resets the base price to its close. Days whose trigger cannot be covered
// (position smaller than a slice, cash smaller than a slice) trade nothing
// and leave the base price alone.
func (s *Simulator) Run(params domain.GridParams) (*domain.StrategyResult, error) {
	if params.UpRatio <= 0 || params.DownRatio <= 0 || params.InitialCash <= 0 {
		return nil, ErrDegenerateParams
	}
	if len(s.points) < 2 {
		return nil, ErrInsufficientData
	}

	firstClose := s.points[0].Close
	if firstClose <= 0 {
		return nil, ErrInsufficientData
	}

	// Grid sizing from the whole window
	minClose, maxClose := firstClose, firstClose
	for _, p := range s.points {
		if p.Close < minClose {
			minClose = p.Close
		}
		if p.Close > maxClose {
			maxClose = p.Close
		}
	}
	priceRange := maxClose - minClose

	gridCount := int(priceRange / (firstClose * math.Min(params.UpRatio, params.DownRatio)))
	if gridCount < MinGridCount {
		gridCount = MinGridCount
	}
	gridCash := params.InitialCash / float64(gridCount)

	// Opening position: half cash, half shares at the first close
	cash := params.InitialCash / 2
	shares := (params.InitialCash / 2) / firstClose
	basePrice := firstClose

	trades := make([]*domain.TradeRecord, 0)
	snapshots := make([]*domain.DailySnapshot, 0, len(s.points))
	buys, sells := 0, 0

	for _, point := range s.points {
		price := point.Close

		switch {
		case price >= basePrice*(1+params.UpRatio):
			if shares*price >= gridCash {
				quantity := gridCash / price
				shares -= quantity
				cash += gridCash
				basePrice = price
				sells++
				trades = append(trades, &domain.TradeRecord{
					Timestamp:       point.Date,
					Price:           price,
					Side:            domain.SideSell,
					Quantity:        quantity,
					CashAfter:       cash,
					StockValueAfter: shares * price,
					TotalValueAfter: cash + shares*price,
				})
			}
		case price <= basePrice*(1-params.DownRatio):
			if cash >= gridCash {
				quantity := gridCash / price
				shares += quantity
				cash -= gridCash
				basePrice = price
				buys++
				trades = append(trades, &domain.TradeRecord{
					Timestamp:       point.Date,
					Price:           price,
					Side:            domain.SideBuy,
					Quantity:        quantity,
					CashAfter:       cash,
					StockValueAfter: shares * price,
					TotalValueAfter: cash + shares*price,
				})
			}
		}

		// Mark the position to market at today's close
		stockValue := shares * price
		snapshots = append(snapshots, &domain.DailySnapshot{
			Date:       point.Date,
			TotalValue: cash + stockValue,
			Cash:       cash,
			StockValue: stockValue,
			Price:      price,
		})
	}

	perf := metrics.Compute(snapshots)
	stockReturn := metrics.StockReturn(s.points)
	last := snapshots[len(snapshots)-1]

	return &domain.StrategyResult{
		UpRatio:     params.UpRatio,
		DownRatio:   params.DownRatio,
		InitialCash: params.InitialCash,
		GridCount:   gridCount,
		GridCash:    gridCash,

		TotalReturn:  perf.TotalReturn,
		AnnualReturn: perf.AnnualReturn,
		MaxDrawdown:  perf.MaxDrawdown,
		SharpeRatio:  perf.SharpeRatio,

		TotalTrades: len(trades),
		BuyTrades:   buys,
		SellTrades:  sells,

		StockReturn:  stockReturn,
		ExcessReturn: perf.TotalReturn - stockReturn,

		FinalCash:       last.Cash,
		FinalStockValue: last.StockValue,
		FinalTotalValue: last.TotalValue,

		Trades:    trades,
		Snapshots: snapshots,
	}, nil
}
