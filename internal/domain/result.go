package domain

// StrategyResult aggregates one simulation run: the parameters, the derived
// grid sizing, the full trade ledger, the full daily trace and the derived
// metrics. Built once per simulation call, never mutated afterward.
type StrategyResult struct {
	// Parameters
	UpRatio     float64
	DownRatio   float64
	InitialCash float64
	GridCount   int     // max(5, price range / (first close * min ratio))
	GridCash    float64 // initial_cash / grid_count, per-trigger trade size

	// Return metrics
	TotalReturn  float64 // (final total - initial total) / initial total
	AnnualReturn float64 // (1+total_return)^(365/days) - 1
	MaxDrawdown  float64 // worst decline from the running peak, <= 0
	SharpeRatio  float64 // mean/stddev of daily changes * sqrt(252)

	// Trade statistics
	TotalTrades int
	BuyTrades   int
	SellTrades  int

	// Buy-and-hold comparison over the same window
	StockReturn  float64 // (last close - first close) / first close
	ExcessReturn float64 // total_return - stock_return

	// Final state
	FinalCash       float64
	FinalStockValue float64
	FinalTotalValue float64

	// Detail
	Trades    []*TradeRecord
	Snapshots []*DailySnapshot
}

// SweepRow is one line of the sweep table: the metrics of a single
// (up_ratio, down_ratio) pair. Rows exist only for pairs that simulated.
// Corresponds to sweep_points table in ClickHouse.
type SweepRow struct {
	UpRatio      float64
	DownRatio    float64
	ExcessReturn float64
	TotalReturn  float64
	StockReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	SharpeRatio  float64
	TotalTrades  int
	BuyTrades    int
	SellTrades   int
}

// OptimizationResult aggregates a full parameter sweep. Best is nil when no
// pair produced a simulation result; callers must handle that explicitly.
type OptimizationResult struct {
	Best       *StrategyResult // highest excess return, first wins ties
	BestParams *GridParams     // parameters of Best, nil when Best is nil
	Rows       []*SweepRow     // one per simulated pair, enumeration order

	// Sweep accounting
	Attempted int // every grid cell, including skipped ones
	Simulated int // cells that produced a result
	Skipped   int // degenerate or insufficient-data cells
}
