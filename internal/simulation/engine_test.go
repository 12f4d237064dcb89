package simulation

import (
	"errors"
	"math"
	"testing"
	"time"

	"grid-strategy-lab/internal/domain"
)

// series builds a daily price series from closes, one day apart.
func series(closes ...float64) []*domain.PricePoint {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]*domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = &domain.PricePoint{Date: day.AddDate(0, 0, i), Close: c}
	}
	return points
}

func gridParams(up, down float64) domain.GridParams {
	return domain.GridParams{UpRatio: up, DownRatio: down, InitialCash: 10000}
}

func TestRun_DegenerateParams(t *testing.T) {
	sim := New(series(100, 101, 102))

	cases := []domain.GridParams{
		{UpRatio: 0, DownRatio: 0.05, InitialCash: 10000},
		{UpRatio: 0.05, DownRatio: -0.01, InitialCash: 10000},
		{UpRatio: 0.05, DownRatio: 0.05, InitialCash: 0},
	}
	for _, params := range cases {
		result, err := sim.Run(params)
		if !errors.Is(err, ErrDegenerateParams) {
			t.Errorf("expected ErrDegenerateParams for %+v, got %v", params, err)
		}
		if result != nil {
			t.Errorf("expected nil result for %+v", params)
		}
	}
}

func TestRun_InsufficientData(t *testing.T) {
	if _, err := New(nil).Run(gridParams(0.05, 0.05)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty series, got %v", err)
	}
	if _, err := New(series(100)).Run(gridParams(0.05, 0.05)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for single point, got %v", err)
	}
	// A zero first close cannot size the grid
	if _, err := New(series(0, 10)).Run(gridParams(0.05, 0.05)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for zero first close, got %v", err)
	}
}

func TestRun_ConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	sim := New(series(closes...))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Zero price range → slice count floored at 5
	if result.GridCount != 5 {
		t.Errorf("expected GridCount 5, got %d", result.GridCount)
	}
	if result.TotalTrades != 0 {
		t.Errorf("expected 0 trades on a flat series, got %d", result.TotalTrades)
	}
	if result.TotalReturn != 0 {
		t.Errorf("expected TotalReturn 0, got %f", result.TotalReturn)
	}
	if result.MaxDrawdown != 0 {
		t.Errorf("expected MaxDrawdown 0, got %f", result.MaxDrawdown)
	}
	if result.SharpeRatio != 0 {
		t.Errorf("expected SharpeRatio 0, got %f", result.SharpeRatio)
	}
	if result.ExcessReturn != 0 {
		t.Errorf("expected ExcessReturn 0, got %f", result.ExcessReturn)
	}
	if len(result.Snapshots) != 30 {
		t.Fatalf("expected 30 snapshots, got %d", len(result.Snapshots))
	}
	// Opening split: half cash, half stock, worth the full 10000 throughout
	if math.Abs(result.FinalCash-5000) > 1e-9 {
		t.Errorf("expected FinalCash 5000, got %f", result.FinalCash)
	}
	if math.Abs(result.FinalStockValue-5000) > 1e-9 {
		t.Errorf("expected FinalStockValue 5000, got %f", result.FinalStockValue)
	}
	if math.Abs(result.FinalTotalValue-10000) > 1e-9 {
		t.Errorf("expected FinalTotalValue 10000, got %f", result.FinalTotalValue)
	}
}

func TestRun_RisingSeriesSells(t *testing.T) {
	// Range 21 → int(21/5) = 4 → floored to 5 slices of 2000.
	// Day 1: 110 >= 105, sell 2000 at 110. Day 2: 121 >= 115.5, sell at 121.
	sim := New(series(100, 110, 121))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.GridCount != 5 {
		t.Errorf("expected GridCount 5, got %d", result.GridCount)
	}
	if math.Abs(result.GridCash-2000) > 1e-9 {
		t.Errorf("expected GridCash 2000, got %f", result.GridCash)
	}
	if result.SellTrades != 2 || result.BuyTrades != 0 {
		t.Fatalf("expected 2 sells and 0 buys, got %d sells %d buys", result.SellTrades, result.BuyTrades)
	}
	if result.Trades[0].Side != domain.SideSell {
		t.Errorf("expected first trade SELL, got %s", result.Trades[0].Side)
	}
	// Sold 2000 worth at 110 → 18.18 shares
	if math.Abs(result.Trades[0].Quantity-2000.0/110.0) > 1e-9 {
		t.Errorf("expected Quantity %.6f, got %.6f", 2000.0/110.0, result.Trades[0].Quantity)
	}

	// Opening stock 5000 appreciates with the price, sells lock slices in:
	// final total 9000 cash + 1850 stock = 10850
	if math.Abs(result.FinalTotalValue-10850) > 1e-6 {
		t.Errorf("expected FinalTotalValue 10850, got %f", result.FinalTotalValue)
	}
	if math.Abs(result.TotalReturn-0.085) > 1e-9 {
		t.Errorf("expected TotalReturn 0.085, got %f", result.TotalReturn)
	}
	if math.Abs(result.StockReturn-0.21) > 1e-9 {
		t.Errorf("expected StockReturn 0.21, got %f", result.StockReturn)
	}
	// The grid keeps only half exposed, so it trails the pure rise
	if math.Abs(result.ExcessReturn-(-0.125)) > 1e-9 {
		t.Errorf("expected ExcessReturn -0.125, got %f", result.ExcessReturn)
	}
}

func TestRun_FallingSeriesBuys(t *testing.T) {
	// Day 1: 90 <= 95, buy 2000 at 90. Day 2: 81 <= 85.5, buy at 81.
	sim := New(series(100, 90, 81))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BuyTrades != 2 || result.SellTrades != 0 {
		t.Fatalf("expected 2 buys and 0 sells, got %d buys %d sells", result.BuyTrades, result.SellTrades)
	}
	if math.Abs(result.FinalCash-1000) > 1e-9 {
		t.Errorf("expected FinalCash 1000, got %f", result.FinalCash)
	}
	// Total 10000 → 9500 → 8850
	if math.Abs(result.TotalReturn-(-0.115)) > 1e-9 {
		t.Errorf("expected TotalReturn -0.115, got %f", result.TotalReturn)
	}
	if math.Abs(result.MaxDrawdown-(-0.115)) > 1e-9 {
		t.Errorf("expected MaxDrawdown -0.115, got %f", result.MaxDrawdown)
	}
	// Only half the capital rides the fall, so the grid beats buy-and-hold
	if math.Abs(result.StockReturn-(-0.19)) > 1e-9 {
		t.Errorf("expected StockReturn -0.19, got %f", result.StockReturn)
	}
	if math.Abs(result.ExcessReturn-0.075) > 1e-9 {
		t.Errorf("expected ExcessReturn 0.075, got %f", result.ExcessReturn)
	}
}

func TestRun_RoundTripProfit(t *testing.T) {
	// Buy 2000 at 90, sell 2000 at 100: the round trip keeps 2000/9 of
	// value as extra shares even though the price ends where it started
	sim := New(series(100, 90, 100))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BuyTrades != 1 || result.SellTrades != 1 {
		t.Fatalf("expected 1 buy and 1 sell, got %d buys %d sells", result.BuyTrades, result.SellTrades)
	}
	if result.StockReturn != 0 {
		t.Errorf("expected StockReturn 0, got %f", result.StockReturn)
	}
	expectedExcess := (2000.0 / 9.0) / 10000.0
	if math.Abs(result.ExcessReturn-expectedExcess) > 1e-9 {
		t.Errorf("expected ExcessReturn %.8f, got %.8f", expectedExcess, result.ExcessReturn)
	}
	if result.ExcessReturn <= 0 {
		t.Errorf("expected positive excess on an oscillation, got %f", result.ExcessReturn)
	}
}

func TestRun_OscillationAccumulatesShares(t *testing.T) {
	// Three full 100→90→100 round trips, each worth 2000/9
	sim := New(series(100, 90, 100, 90, 100, 90, 100))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BuyTrades != 3 || result.SellTrades != 3 {
		t.Fatalf("expected 3 buys and 3 sells, got %d buys %d sells", result.BuyTrades, result.SellTrades)
	}
	if math.Abs(result.FinalCash-5000) > 1e-9 {
		t.Errorf("expected FinalCash 5000, got %f", result.FinalCash)
	}
	// 50 opening shares + 3 * (2000/90 - 2000/100) kept shares at price 100
	expectedStock := (50.0 + 3.0*(2000.0/90.0-20.0)) * 100.0
	if math.Abs(result.FinalStockValue-expectedStock) > 1e-6 {
		t.Errorf("expected FinalStockValue %.4f, got %.4f", expectedStock, result.FinalStockValue)
	}
	expectedExcess := 3.0 * (2000.0 / 9.0) / 10000.0
	if math.Abs(result.ExcessReturn-expectedExcess) > 1e-9 {
		t.Errorf("expected ExcessReturn %.8f, got %.8f", expectedExcess, result.ExcessReturn)
	}
}

func TestRun_BuyBlockedWhenCashDepleted(t *testing.T) {
	// Buys at 94 and 88 leave 1000 cash, less than one 2000 slice: the
	// later triggers at 83 and 78 cannot fill and leave the base at 88
	sim := New(series(100, 94, 88, 83, 78))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.BuyTrades != 2 {
		t.Errorf("expected 2 buys, got %d", result.BuyTrades)
	}
	if result.TotalTrades != 2 {
		t.Errorf("expected 2 trades, got %d", result.TotalTrades)
	}
	// Cash never goes below the last affordable slice
	if math.Abs(result.FinalCash-1000) > 1e-9 {
		t.Errorf("expected FinalCash 1000, got %f", result.FinalCash)
	}
}

func TestRun_SellBlockedWhenPositionDepleted(t *testing.T) {
	// Range 35 → int(35/5) = 7 slices of 10000/7. Four sells drain the
	// position below one slice; the fifth trigger at 135 cannot fill
	sim := New(series(100, 106, 113, 120, 127, 135))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.GridCount != 7 {
		t.Errorf("expected GridCount 7, got %d", result.GridCount)
	}
	if result.SellTrades != 4 {
		t.Errorf("expected 4 sells, got %d", result.SellTrades)
	}
	if result.BuyTrades != 0 {
		t.Errorf("expected 0 buys, got %d", result.BuyTrades)
	}
	expectedCash := 5000.0 + 4.0*10000.0/7.0
	if math.Abs(result.FinalCash-expectedCash) > 1e-6 {
		t.Errorf("expected FinalCash %.4f, got %.4f", expectedCash, result.FinalCash)
	}
	// The leftover position is worth less than one slice
	if result.FinalStockValue >= result.GridCash {
		t.Errorf("expected final stock %.4f below one slice %.4f", result.FinalStockValue, result.GridCash)
	}
}

func TestRun_ValueConservation(t *testing.T) {
	sim := New(series(100, 90, 100, 90, 100, 90, 100))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, snap := range result.Snapshots {
		if math.Abs(snap.Cash+snap.StockValue-snap.TotalValue) > 1e-9 {
			t.Errorf("snapshot %d: cash %.6f + stock %.6f != total %.6f", i, snap.Cash, snap.StockValue, snap.TotalValue)
		}
	}
	for i, trade := range result.Trades {
		if math.Abs(trade.CashAfter+trade.StockValueAfter-trade.TotalValueAfter) > 1e-9 {
			t.Errorf("trade %d: cash %.6f + stock %.6f != total %.6f", i, trade.CashAfter, trade.StockValueAfter, trade.TotalValueAfter)
		}
		if i > 0 && !result.Trades[i-1].Timestamp.Before(trade.Timestamp) {
			t.Errorf("trade %d timestamp %v not after trade %d", i, trade.Timestamp, i-1)
		}
	}
}

func TestRun_SnapshotMatchesTradeState(t *testing.T) {
	sim := New(series(100, 110, 121))

	result, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}

	// The day-1 snapshot must mirror the day-1 trade's after state
	trade, snap := result.Trades[0], result.Snapshots[1]
	if !trade.Timestamp.Equal(snap.Date) {
		t.Fatalf("expected trade on %v, snapshot is %v", snap.Date, trade.Timestamp)
	}
	if math.Abs(trade.CashAfter-snap.Cash) > 1e-9 {
		t.Errorf("expected snapshot cash %.6f, got %.6f", trade.CashAfter, snap.Cash)
	}
	if math.Abs(trade.StockValueAfter-snap.StockValue) > 1e-9 {
		t.Errorf("expected snapshot stock %.6f, got %.6f", trade.StockValueAfter, snap.StockValue)
	}
	if math.Abs(trade.TotalValueAfter-snap.TotalValue) > 1e-9 {
		t.Errorf("expected snapshot total %.6f, got %.6f", trade.TotalValueAfter, snap.TotalValue)
	}
}

func TestRun_ReusableAcrossCalls(t *testing.T) {
	// The simulator holds only the series; two runs with the same
	// parameters must agree in every field
	sim := New(series(100, 90, 100, 110, 121, 100))

	first, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	second, err := sim.Run(gridParams(0.05, 0.05))
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if first.TotalTrades != second.TotalTrades {
		t.Errorf("expected %d trades, got %d", first.TotalTrades, second.TotalTrades)
	}
	if first.ExcessReturn != second.ExcessReturn {
		t.Errorf("expected ExcessReturn %f, got %f", first.ExcessReturn, second.ExcessReturn)
	}
	if first.FinalTotalValue != second.FinalTotalValue {
		t.Errorf("expected FinalTotalValue %f, got %f", first.FinalTotalValue, second.FinalTotalValue)
	}
}
