package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"grid-strategy-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

// testReport builds a small viable run with a consistent ledger and trace.
func testReport() *RunReport {
	run := &domain.SweepRun{
		RunID:        "RUNTEST1",
		Symbol:       "000001.SZ",
		Frequency:    domain.FrequencyDaily,
		Adjust:       domain.AdjustForward,
		StartDate:    day(0),
		EndDate:      day(5),
		InitialCash:  100000,
		MinUpRatio:   0.02,
		MaxUpRatio:   0.04,
		MinDownRatio: 0.02,
		MaxDownRatio: 0.04,
		StepSize:     0.01,
		DayCount:     6,
		Attempted:    9,
		Simulated:    9,
		Skipped:      0,

		BestUpRatio:      f64(0.03),
		BestDownRatio:    f64(0.02),
		BestTotalReturn:  f64(0.12),
		BestAnnualReturn: f64(0.25),
		BestMaxDrawdown:  f64(-0.05),
		BestSharpeRatio:  f64(1.4),
		BestStockReturn:  f64(0.07),
		BestExcessReturn: f64(0.05),
		BestTotalTrades:  intp(2),
		CreatedAt:        day(6),
	}

	snapshots := []*domain.DailySnapshot{
		{Date: day(0), TotalValue: 100000, Cash: 50000, StockValue: 50000, Price: 10.00},
		{Date: day(1), TotalValue: 101000, Cash: 50000, StockValue: 51000, Price: 10.20},
		{Date: day(2), TotalValue: 102500, Cash: 70500, StockValue: 32000, Price: 10.40},
		{Date: day(3), TotalValue: 101800, Cash: 70500, StockValue: 31300, Price: 10.17},
		{Date: day(4), TotalValue: 105200, Cash: 50500, StockValue: 54700, Price: 9.85},
		{Date: day(5), TotalValue: 112000, Cash: 50500, StockValue: 61500, Price: 10.70},
	}
	trades := []*domain.TradeRecord{
		{Timestamp: day(2), Price: 10.40, Side: domain.SideSell, Quantity: 1971.15, CashAfter: 70500, StockValueAfter: 32000, TotalValueAfter: 102500},
		{Timestamp: day(4), Price: 9.85, Side: domain.SideBuy, Quantity: 2030.45, CashAfter: 50500, StockValueAfter: 54700, TotalValueAfter: 105200},
	}
	best := &domain.StrategyResult{
		UpRatio:         0.03,
		DownRatio:       0.02,
		InitialCash:     100000,
		GridCount:       5,
		GridCash:        20000,
		TotalReturn:     0.12,
		AnnualReturn:    0.25,
		MaxDrawdown:     -0.05,
		SharpeRatio:     1.4,
		TotalTrades:     2,
		BuyTrades:       1,
		SellTrades:      1,
		StockReturn:     0.07,
		ExcessReturn:    0.05,
		FinalCash:       50500,
		FinalStockValue: 61500,
		FinalTotalValue: 112000,
		Trades:          trades,
		Snapshots:       snapshots,
	}

	var rows []*domain.SweepRow
	for _, up := range []float64{0.02, 0.03, 0.04} {
		for _, dn := range []float64{0.02, 0.03, 0.04} {
			excess := 0.05 - (up-0.03)*(up-0.03) - (dn-0.02)*(dn-0.02)
			rows = append(rows, &domain.SweepRow{
				UpRatio:      up,
				DownRatio:    dn,
				ExcessReturn: excess,
				TotalReturn:  excess + 0.07,
				StockReturn:  0.07,
				AnnualReturn: 0.2,
				MaxDrawdown:  -0.06,
				SharpeRatio:  1.1,
				TotalTrades:  4,
				BuyTrades:    2,
				SellTrades:   2,
			})
		}
	}

	return &RunReport{Run: run, Best: best, Rows: rows, GeneratedAt: day(6)}
}

// testReportNoViable builds a run where no pair simulated.
func testReportNoViable() *RunReport {
	return &RunReport{
		Run: &domain.SweepRun{
			RunID:        "RUNEMPTY1",
			Symbol:       "000001.SZ",
			Frequency:    domain.FrequencyDaily,
			Adjust:       domain.AdjustForward,
			StartDate:    day(0),
			EndDate:      day(0),
			InitialCash:  100000,
			MinUpRatio:   0.02,
			MaxUpRatio:   0.04,
			MinDownRatio: 0.02,
			MaxDownRatio: 0.04,
			StepSize:     0.01,
			DayCount:     1,
			Attempted:    9,
			Skipped:      9,
		},
		GeneratedAt: day(1),
	}
}

func TestRenderSweepCSV(t *testing.T) {
	r := testReport()
	out := RenderSweepCSV(r.Rows)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(r.Rows)+1 {
		t.Fatalf("Expected %d lines, got %d", len(r.Rows)+1, len(lines))
	}
	if !strings.HasPrefix(lines[0], "up_ratio,down_ratio,excess_return") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0.020000,0.020000,") {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
	if !strings.HasSuffix(lines[1], ",4,2,2") {
		t.Errorf("Expected trade counts at row end, got: %s", lines[1])
	}
}

func TestRenderSweepCSVEmpty(t *testing.T) {
	out := RenderSweepCSV(nil)
	if !strings.HasPrefix(out, "up_ratio,") {
		t.Errorf("Empty table should still have a header, got: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Expected header only, got: %q", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	r := testReport()
	md := RenderMarkdown(r, DefaultTopRows)

	for _, want := range []string{
		"# Grid Sweep Report: 000001.SZ",
		"Run ID: `RUNTEST1`",
		"Up 3.0% / Down 2.0%",
		"| Total Return | 12.00% |",
		"| Excess Return | 5.00% |",
		"| Trades | 2 (1 buys, 1 sells) |",
		"## Sweep Results",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderMarkdownTopRows(t *testing.T) {
	r := testReport()
	md := RenderMarkdown(r, 3)

	if !strings.Contains(md, "Top 3 of 9 pairs") {
		t.Errorf("Expected top-rows note, got:\n%s", md)
	}
	// Best excess row (0.03, 0.02) must lead the table
	tableStart := strings.Index(md, "| Up | Down |")
	if tableStart < 0 {
		t.Fatal("Sweep table not found")
	}
	firstRow := strings.SplitN(md[tableStart:], "\n", 3)[2]
	if !strings.HasPrefix(firstRow, "| 0.030 | 0.020 |") {
		t.Errorf("Expected best pair first, got: %s", firstRow)
	}
}

func TestRenderMarkdownNoViable(t *testing.T) {
	md := RenderMarkdown(testReportNoViable(), DefaultTopRows)

	if !strings.Contains(md, "No parameter pair produced a viable simulation.") {
		t.Error("Expected no-viable notice")
	}
	if !strings.Contains(md, "No pairs simulated.") {
		t.Error("Expected empty sweep table notice")
	}
}

func TestRenderJSON(t *testing.T) {
	r := testReport()
	data, err := RenderJSON(r)
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if doc["run_id"] != "RUNTEST1" {
		t.Errorf("run_id = %v", doc["run_id"])
	}
	if doc["symbol"] != "000001.SZ" {
		t.Errorf("symbol = %v", doc["symbol"])
	}

	params, ok := doc["best_parameters"].(map[string]interface{})
	if !ok {
		t.Fatalf("best_parameters missing: %v", doc["best_parameters"])
	}
	if params["up_ratio"] != 0.03 || params["down_ratio"] != 0.02 {
		t.Errorf("best_parameters = %v", params)
	}

	all, ok := doc["all_results"].([]interface{})
	if !ok || len(all) != 9 {
		t.Errorf("all_results length = %d", len(all))
	}

	best, ok := doc["best_result"].(map[string]interface{})
	if !ok {
		t.Fatal("best_result missing")
	}
	if best["excess_return"] != 0.05 {
		t.Errorf("best_result.excess_return = %v", best["excess_return"])
	}
}

func TestRenderJSONNoViable(t *testing.T) {
	data, err := RenderJSON(testReportNoViable())
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if doc["best_parameters"] != nil {
		t.Errorf("best_parameters should be null, got %v", doc["best_parameters"])
	}
	if doc["best_result"] != nil {
		t.Errorf("best_result should be null, got %v", doc["best_result"])
	}
}

func TestRenderDashboardHTML(t *testing.T) {
	r := testReport()
	out, err := RenderDashboardHTML(r)
	if err != nil {
		t.Fatalf("RenderDashboardHTML failed: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		"000001.SZ Grid Strategy Dashboard",
		"RUNTEST1",
		`id="price-chart"`,
		`id="return-chart"`,
		`id="heatmap"`,
		`id="histogram"`,
		`id="trade-stats"`,
		`id="risk-chart"`,
		`"up_axis":[0.02,`,
		`"buys":[{"date":"2024-01-06"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Dashboard missing %q", want)
		}
	}
	if strings.Contains(html, "http://") || strings.Contains(html, "https://") {
		t.Error("Dashboard must be self-contained, found external URL")
	}
}

func TestRenderComparisonHTML(t *testing.T) {
	r := testReport()
	out, err := RenderComparisonHTML(r)
	if err != nil {
		t.Fatalf("RenderComparisonHTML failed: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		"Grid Strategy vs Buy &amp; Hold",
		`id="position-chart"`,
		`"cash":[50000,`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Comparison missing %q", want)
		}
	}
}

func TestRenderHTMLNoViable(t *testing.T) {
	r := testReportNoViable()

	dash, err := RenderDashboardHTML(r)
	if err != nil {
		t.Fatalf("RenderDashboardHTML failed: %v", err)
	}
	if !strings.Contains(string(dash), "No parameter pair produced a viable simulation") {
		t.Error("Dashboard should carry the no-viable notice")
	}

	cmp, err := RenderComparisonHTML(r)
	if err != nil {
		t.Fatalf("RenderComparisonHTML failed: %v", err)
	}
	if !strings.Contains(string(cmp), "No parameter pair produced a viable simulation") {
		t.Error("Comparison should carry the no-viable notice")
	}
}

func TestWriteWorkbook(t *testing.T) {
	r := testReport()
	path := filepath.Join(t.TempDir(), "sweep.xlsx")

	if err := WriteWorkbook(path, r); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{"Summary", "Sweep", "Trades"} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Missing sheet %s, have %v", want, sheets)
		}
	}

	got, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if got != "RUNTEST1" {
		t.Errorf("Summary B1 = %q, want run ID", got)
	}

	header, err := f.GetCellValue("Sweep", "A1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if header != "up_ratio" {
		t.Errorf("Sweep A1 = %q", header)
	}
}

func TestGeneratorGenerate(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(dir).WithClock(func() time.Time { return fixed })

	r := testReport()
	arts, err := gen.Generate(r)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !r.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want clock time", r.GeneratedAt)
	}
	for _, path := range arts.List() {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("Missing artifact %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Artifact %s is empty", path)
		}
	}
	if filepath.Base(arts.Markdown) != "REPORT_RUNTEST1.md" {
		t.Errorf("Markdown name = %s", filepath.Base(arts.Markdown))
	}

	data, err := os.ReadFile(arts.ResultsJSON)
	if err != nil {
		t.Fatalf("Read results JSON: %v", err)
	}
	if !strings.Contains(string(data), `"generated_at": "2024-06-30T12:00:00Z"`) {
		t.Error("Results JSON should carry the clock timestamp")
	}
}

func TestGeneratorGenerateNoViable(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir)

	arts, err := gen.Generate(testReportNoViable())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, path := range arts.List() {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Missing artifact %s: %v", path, err)
		}
	}
}

func TestBestFromRun(t *testing.T) {
	r := testReport()
	rebuilt := BestFromRun(r.Run, r.Best.Trades, r.Best.Snapshots)
	if rebuilt == nil {
		t.Fatal("Expected rebuilt result for viable run")
	}

	if rebuilt.UpRatio != 0.03 || rebuilt.DownRatio != 0.02 {
		t.Errorf("Parameters = %g/%g", rebuilt.UpRatio, rebuilt.DownRatio)
	}
	if rebuilt.TotalReturn != 0.12 || rebuilt.ExcessReturn != 0.05 {
		t.Errorf("Metrics = %g/%g", rebuilt.TotalReturn, rebuilt.ExcessReturn)
	}
	if rebuilt.BuyTrades != 1 || rebuilt.SellTrades != 1 {
		t.Errorf("Trade counts = %d/%d", rebuilt.BuyTrades, rebuilt.SellTrades)
	}
	if rebuilt.FinalTotalValue != 112000 {
		t.Errorf("FinalTotalValue = %g", rebuilt.FinalTotalValue)
	}
	if rebuilt.GridCount < 5 {
		t.Errorf("GridCount = %d, want >= 5", rebuilt.GridCount)
	}

	if got := BestFromRun(testReportNoViable().Run, nil, nil); got != nil {
		t.Errorf("Expected nil for non-viable run, got %+v", got)
	}
}
