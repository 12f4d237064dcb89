package domain

import "time"

// Side represents the direction of a grid trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// String returns the string representation of Side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is a valid value.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// TradeRecord represents one executed grid trigger. Records are created only
// inside the simulation engine, appended in day order, and never mutated.
// Corresponds to trade_records table in PostgreSQL.
type TradeRecord struct {
	Timestamp time.Time // trade day, midnight UTC
	Price     float64   // the day's close, which is also the fill price
	Side      Side      // BUY | SELL
	Quantity  float64   // shares moved: traded amount / price

	// Portfolio state after the trade
	CashAfter       float64
	StockValueAfter float64 // shares held marked at the trade price
	TotalValueAfter float64 // cash_after + stock_value_after
}
