package domain

import "time"

// PricePoint represents one closing price per calendar day, the unit the
// simulation engine consumes. When multiple raw samples exist for a day the
// last one chronologically wins.
type PricePoint struct {
	Date  time.Time // calendar day, midnight UTC
	Close float64   // last close observed on that day
}

// DailySnapshot represents the portfolio state at the end of one simulated
// day. One per day, in date order; the sequence forms the value trace the
// metrics calculator consumes.
// Corresponds to daily_snapshots table in ClickHouse.
type DailySnapshot struct {
	Date       time.Time // calendar day, midnight UTC
	TotalValue float64   // cash + stock value
	Cash       float64   // uninvested currency
	StockValue float64   // shares held marked at the day's close
	Price      float64   // the day's close
}
