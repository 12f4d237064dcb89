// Package reporting renders finished sweep runs into their exported
// artifacts: results JSON, the sweep table as CSV and XLSX, a Markdown
// report and two self-contained HTML pages. Renderers are pure functions
// of the run report; the Generator owns filesystem placement and the
// generation timestamp.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTopRows caps the Markdown sweep table.
const DefaultTopRows = 20

// Generator writes all report artifacts for one run into an output
// directory. File names carry the run ID, so re-rendering the same run
// overwrites its own artifacts and nothing else.
type Generator struct {
	outputDir string
	topRows   int
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a generator writing under outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
		topRows:   DefaultTopRows,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopRows overrides the Markdown sweep table cap. n <= 0 keeps every row.
func (g *Generator) WithTopRows(n int) *Generator {
	g.topRows = n
	return g
}

// Artifacts lists the files one Generate call wrote.
type Artifacts struct {
	ResultsJSON string
	SweepCSV    string
	Markdown    string
	Dashboard   string
	Comparison  string
	Workbook    string
}

// List returns the artifact paths in generation order.
func (a *Artifacts) List() []string {
	return []string{a.ResultsJSON, a.SweepCSV, a.Markdown, a.Dashboard, a.Comparison, a.Workbook}
}

// Generate stamps the report with the generator clock and writes every
// artifact. Partial output is possible on error; callers re-run Generate
// rather than picking up where a failed call stopped.
func (g *Generator) Generate(report *RunReport) (*Artifacts, error) {
	if report == nil || report.Run == nil {
		return nil, fmt.Errorf("report has no run")
	}
	report.GeneratedAt = g.now()

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	runID := report.Run.RunID
	out := &Artifacts{
		ResultsJSON: filepath.Join(g.outputDir, fmt.Sprintf("results_%s.json", runID)),
		SweepCSV:    filepath.Join(g.outputDir, fmt.Sprintf("sweep_%s.csv", runID)),
		Markdown:    filepath.Join(g.outputDir, fmt.Sprintf("REPORT_%s.md", runID)),
		Dashboard:   filepath.Join(g.outputDir, fmt.Sprintf("dashboard_%s.html", runID)),
		Comparison:  filepath.Join(g.outputDir, fmt.Sprintf("comparison_%s.html", runID)),
		Workbook:    filepath.Join(g.outputDir, fmt.Sprintf("sweep_%s.xlsx", runID)),
	}

	resultsJSON, err := RenderJSON(report)
	if err != nil {
		return nil, fmt.Errorf("render results JSON: %w", err)
	}
	if err := os.WriteFile(out.ResultsJSON, resultsJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write results JSON: %w", err)
	}

	if err := os.WriteFile(out.SweepCSV, []byte(RenderSweepCSV(report.Rows)), 0o644); err != nil {
		return nil, fmt.Errorf("write sweep CSV: %w", err)
	}

	if err := os.WriteFile(out.Markdown, []byte(RenderMarkdown(report, g.topRows)), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}

	dashboard, err := RenderDashboardHTML(report)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.Dashboard, dashboard, 0o644); err != nil {
		return nil, fmt.Errorf("write dashboard: %w", err)
	}

	comparison, err := RenderComparisonHTML(report)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.Comparison, comparison, 0o644); err != nil {
		return nil, fmt.Errorf("write comparison: %w", err)
	}

	if err := WriteWorkbook(out.Workbook, report); err != nil {
		return nil, err
	}

	return out, nil
}
