// Package runid derives deterministic sweep run identifiers, so identical
// requests map to identical storage keys and report filenames.
package runid

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Request carries the fields that identify a sweep run. Two runs with equal
// fields are the same run.
type Request struct {
	Symbol      string
	Market      string
	Frequency   string
	Adjust      string
	StartDate   string // YYYYMMDD
	EndDate     string // YYYYMMDD
	InitialCash float64

	// Sweep bounds
	MinUp   float64
	MaxUp   float64
	MinDown float64
	MaxDown float64
	Step    float64
}

// New computes a run ID using SHA256.
// Formula: SHA256(symbol|market|frequency|adjust|start|end|cash|min_up|max_up|min_down|max_down|step),
// first 16 bytes base58-encoded. Stable across processes.
func New(req Request) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%g|%g|%g|%g|%g|%g",
		req.Symbol,
		req.Market,
		req.Frequency,
		req.Adjust,
		req.StartDate,
		req.EndDate,
		req.InitialCash,
		req.MinUp,
		req.MaxUp,
		req.MinDown,
		req.MaxDown,
		req.Step,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
