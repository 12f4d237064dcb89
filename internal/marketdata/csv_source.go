package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/normalization"
)

// CSVSource reads bars from local cache files, one per
// symbol/frequency/adjust triple. The offline path: no token, no network.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a Source over a cache directory.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// FileName returns the cache file name for a request,
// e.g. 000001.SZ_d_f.csv.
func (s *CSVSource) FileName(req FetchRequest) string {
	return fmt.Sprintf("%s_%s_%s.csv", req.QualifiedSymbol(), req.Frequency, req.EffectiveAdjust())
}

// FetchBars loads the cache file and applies the request window.
func (s *CSVSource) FetchBars(_ context.Context, req FetchRequest) ([]*domain.PriceBar, error) {
	path := filepath.Join(s.dir, s.FileName(req))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if rows[0][0] == "datetime" {
		rows = rows[1:] // header row
	}

	bars := make([]*domain.PriceBar, 0, len(rows))
	for i, row := range rows {
		bar, err := parseCacheRow(row, req)
		if err != nil {
			return nil, fmt.Errorf("cache row %d: %w", i+1, err)
		}
		bars = append(bars, bar)
	}

	normalization.SortBars(bars)
	return normalization.FilterBars(bars, req.StartDate, req.EndDate), nil
}

// parseCacheRow maps one
// datetime,open,high,low,close,volume,amount,prev_close,suspended
// line to a PriceBar.
func parseCacheRow(row []string, req FetchRequest) (*domain.PriceBar, error) {
	if len(row) != 9 {
		return nil, fmt.Errorf("expected 9 columns, got %d", len(row))
	}

	ts, err := parseBarTime(row[0])
	if err != nil {
		return nil, fmt.Errorf("parse datetime %q: %w", row[0], err)
	}

	fields := make([]float64, 7)
	for i, raw := range row[1:8] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse column %d %q: %w", i+1, raw, err)
		}
		fields[i] = v
	}

	suspended, err := strconv.ParseBool(row[8])
	if err != nil {
		return nil, fmt.Errorf("parse suspended %q: %w", row[8], err)
	}

	return &domain.PriceBar{
		Symbol:    req.QualifiedSymbol(),
		Frequency: req.Frequency,
		Adjust:    req.EffectiveAdjust(),
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
		Amount:    fields[5],
		PrevClose: fields[6],
		Suspended: suspended,
	}, nil
}

// Ensure CSVSource implements Source
var _ Source = (*CSVSource)(nil)
