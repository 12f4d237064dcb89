package domain

import "time"

// Frequency represents the bar interval requested from the quote API.
type Frequency string

const (
	Frequency5Min  Frequency = "5"
	Frequency15Min Frequency = "15"
	Frequency30Min Frequency = "30"
	Frequency60Min Frequency = "60"
	FrequencyDaily Frequency = "d"
	FrequencyWeek  Frequency = "w"
	FrequencyMonth Frequency = "m"
	FrequencyYear  Frequency = "y"
)

// String returns the string representation of Frequency.
func (f Frequency) String() string {
	return string(f)
}

// IsValid checks if the frequency is a valid value.
func (f Frequency) IsValid() bool {
	switch f {
	case Frequency5Min, Frequency15Min, Frequency30Min, Frequency60Min,
		FrequencyDaily, FrequencyWeek, FrequencyMonth, FrequencyYear:
		return true
	}
	return false
}

// Intraday reports whether the frequency is finer than one day.
// Intraday bars are only served unadjusted by the quote API.
func (f Frequency) Intraday() bool {
	switch f {
	case Frequency5Min, Frequency15Min, Frequency30Min, Frequency60Min:
		return true
	}
	return false
}

// Adjust represents the price adjustment mode for historical bars.
type Adjust string

const (
	AdjustNone         Adjust = "n"  // raw prices
	AdjustForward      Adjust = "f"  // forward-adjusted
	AdjustBackward     Adjust = "b"  // backward-adjusted
	AdjustForwardProp  Adjust = "fr" // proportional forward-adjusted
	AdjustBackwardProp Adjust = "br" // proportional backward-adjusted
)

// String returns the string representation of Adjust.
func (a Adjust) String() string {
	return string(a)
}

// IsValid checks if the adjust mode is a valid value.
func (a Adjust) IsValid() bool {
	switch a {
	case AdjustNone, AdjustForward, AdjustBackward, AdjustForwardProp, AdjustBackwardProp:
		return true
	}
	return false
}

// PriceBar represents one raw OHLCV sample for a symbol.
// Corresponds to price_bars table in PostgreSQL.
type PriceBar struct {
	Symbol    string    // exchange-qualified code, e.g. "000001.SZ"
	Frequency Frequency // bar interval
	Adjust    Adjust    // price adjustment mode
	Timestamp time.Time // bar timestamp (exchange local time)
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64   // traded shares
	Amount    float64   // traded currency amount
	PrevClose float64   // previous session close
	Suspended bool      // trading suspended flag
}
