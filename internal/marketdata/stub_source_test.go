package marketdata

import (
	"context"
	"testing"
	"time"

	"grid-strategy-lab/internal/domain"
)

func TestStubSource_FetchBars(t *testing.T) {
	src := NewStubSource()
	req := dailyRequest()
	req.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	req.EndDate = time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)  // Sunday

	bars, err := src.FetchBars(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}

	// Two full weeks hold ten weekdays
	if len(bars) != 10 {
		t.Fatalf("expected 10 weekday bars, got %d", len(bars))
	}

	for _, b := range bars {
		if wd := b.Timestamp.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("bar on weekend: %v", b.Timestamp)
		}
		if b.Close <= 0 || b.Low <= 0 {
			t.Errorf("non-positive price on %v", b.Timestamp)
		}
		if b.High < b.Close || b.High < b.Open {
			t.Errorf("high below open/close on %v", b.Timestamp)
		}
		if b.Amount != b.Close*b.Volume {
			t.Errorf("amount %g != close*volume %g on %v", b.Amount, b.Close*b.Volume, b.Timestamp)
		}
	}

	// Open chains from the previous close
	if bars[1].Open != bars[0].Close {
		t.Errorf("expected second open %g to equal first close %g", bars[1].Open, bars[0].Close)
	}
	if bars[0].PrevClose != 0 {
		t.Errorf("expected zero prev close on first bar, got %g", bars[0].PrevClose)
	}
}

func TestStubSource_FetchBars_Deterministic(t *testing.T) {
	src := NewStubSource()
	req := dailyRequest()

	first, err := src.FetchBars(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	second, err := src.FetchBars(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Close != second[i].Close {
			t.Errorf("bar %d close differs: %g vs %g", i, first[i].Close, second[i].Close)
		}
	}
}

func TestStubSource_FetchBars_SymbolsDiffer(t *testing.T) {
	src := NewStubSource()
	ctx := context.Background()

	reqA := dailyRequest()
	reqB := dailyRequest()
	reqB.Symbol = "600519"
	reqB.Market = "SH"

	barsA, err := src.FetchBars(ctx, reqA)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	barsB, err := src.FetchBars(ctx, reqB)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}

	same := true
	for i := range barsA {
		if barsA[i].Close != barsB[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different symbols to walk different series")
	}
}

func TestStubSource_FetchBars_MissingDates(t *testing.T) {
	src := NewStubSource()
	req := dailyRequest()
	req.StartDate = time.Time{}

	if _, err := src.FetchBars(context.Background(), req); err == nil {
		t.Error("expected error without explicit dates")
	}
}

func TestStubSource_FetchBars_IntradayAdjust(t *testing.T) {
	src := NewStubSource()
	req := dailyRequest()
	req.Frequency = domain.Frequency30Min

	bars, err := src.FetchBars(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) == 0 {
		t.Fatal("expected bars")
	}
	if bars[0].Adjust != domain.AdjustNone {
		t.Errorf("expected adjust n on intraday request, got %s", bars[0].Adjust)
	}
}
