package domain

import "fmt"

// GridParams holds the inputs of one grid simulation.
type GridParams struct {
	UpRatio     float64 // sell trigger: price >= base * (1 + up_ratio)
	DownRatio   float64 // buy trigger: price <= base * (1 - down_ratio)
	InitialCash float64 // starting capital, half converted to stock on day one
}

// Validate checks the parameters for degenerate values.
func (p GridParams) Validate() error {
	if p.UpRatio <= 0 {
		return fmt.Errorf("up_ratio must be > 0, got %g", p.UpRatio)
	}
	if p.DownRatio <= 0 {
		return fmt.Errorf("down_ratio must be > 0, got %g", p.DownRatio)
	}
	if p.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be > 0, got %g", p.InitialCash)
	}
	return nil
}

// SweepBounds describes the rectangular (up_ratio, down_ratio) grid the
// optimizer enumerates. Both axes run from min to max inclusive at Step
// increments.
type SweepBounds struct {
	MinUp   float64
	MaxUp   float64
	MinDown float64
	MaxDown float64
	Step    float64
}

// Validate checks the bounds for values the sweep cannot enumerate.
func (b SweepBounds) Validate() error {
	if b.Step <= 0 {
		return fmt.Errorf("step_size must be > 0, got %g", b.Step)
	}
	if b.MaxUp < b.MinUp {
		return fmt.Errorf("max_up_ratio %g is below min_up_ratio %g", b.MaxUp, b.MinUp)
	}
	if b.MaxDown < b.MinDown {
		return fmt.Errorf("max_down_ratio %g is below min_down_ratio %g", b.MaxDown, b.MinDown)
	}
	return nil
}
