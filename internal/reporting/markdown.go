package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"grid-strategy-lab/internal/domain"
)

// RenderMarkdown renders the run report as Markdown string. topRows caps
// the sweep table section; pass <= 0 to include every row.
func RenderMarkdown(r *RunReport, topRows int) string {
	var sb strings.Builder
	run := r.Run

	// Header
	sb.WriteString(fmt.Sprintf("# Grid Sweep Report: %s\n\n", run.Symbol))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run ID: `%s`\n\n", run.RunID))

	// Run parameters
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Window | %s to %s |\n",
		run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("| Frequency | %s |\n", run.Frequency))
	sb.WriteString(fmt.Sprintf("| Adjust | %s |\n", run.Adjust))
	sb.WriteString(fmt.Sprintf("| Trading Days | %d |\n", run.DayCount))
	sb.WriteString(fmt.Sprintf("| Initial Cash | %.2f |\n", run.InitialCash))
	sb.WriteString(fmt.Sprintf("| Up Ratio Range | %.3f to %.3f |\n", run.MinUpRatio, run.MaxUpRatio))
	sb.WriteString(fmt.Sprintf("| Down Ratio Range | %.3f to %.3f |\n", run.MinDownRatio, run.MaxDownRatio))
	sb.WriteString(fmt.Sprintf("| Step Size | %.3f |\n", run.StepSize))
	sb.WriteString(fmt.Sprintf("| Pairs Attempted | %d |\n", run.Attempted))
	sb.WriteString(fmt.Sprintf("| Pairs Simulated | %d |\n", run.Simulated))
	sb.WriteString(fmt.Sprintf("| Pairs Skipped | %d |\n", run.Skipped))
	sb.WriteString("\n")

	// Best parameters and performance
	sb.WriteString("## Best Parameters\n\n")
	if best := r.Best; best != nil {
		sb.WriteString(fmt.Sprintf("Up %.1f%% / Down %.1f%%\n\n", best.UpRatio*100, best.DownRatio*100))
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", best.TotalReturn*100))
		sb.WriteString(fmt.Sprintf("| Buy & Hold Return | %.2f%% |\n", best.StockReturn*100))
		sb.WriteString(fmt.Sprintf("| Excess Return | %.2f%% |\n", best.ExcessReturn*100))
		sb.WriteString(fmt.Sprintf("| Annual Return | %.2f%% |\n", best.AnnualReturn*100))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", best.MaxDrawdown*100))
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.3f |\n", best.SharpeRatio))
		sb.WriteString(fmt.Sprintf("| Trades | %d (%d buys, %d sells) |\n",
			best.TotalTrades, best.BuyTrades, best.SellTrades))
		sb.WriteString(fmt.Sprintf("| Grid Count | %d |\n", best.GridCount))
		sb.WriteString(fmt.Sprintf("| Grid Cash | %.2f |\n", best.GridCash))
		sb.WriteString(fmt.Sprintf("| Final Value | %.2f (cash %.2f + stock %.2f) |\n",
			best.FinalTotalValue, best.FinalCash, best.FinalStockValue))
	} else {
		sb.WriteString("No parameter pair produced a viable simulation.\n")
	}
	sb.WriteString("\n")

	// Top sweep rows
	sb.WriteString("## Sweep Results\n\n")
	rows := topByExcess(r.Rows, topRows)
	if len(rows) > 0 {
		if topRows > 0 && len(r.Rows) > topRows {
			sb.WriteString(fmt.Sprintf("Top %d of %d pairs by excess return.\n\n", len(rows), len(r.Rows)))
		}
		sb.WriteString("| Up | Down | Excess | Total | Stock | Annual | MaxDD | Sharpe | Trades |\n")
		sb.WriteString("|----|------|--------|-------|-------|--------|-------|--------|--------|\n")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("| %.3f | %.3f | %.4f | %.4f | %.4f | %.4f | %.4f | %.3f | %d |\n",
				row.UpRatio, row.DownRatio, row.ExcessReturn, row.TotalReturn, row.StockReturn,
				row.AnnualReturn, row.MaxDrawdown, row.SharpeRatio, row.TotalTrades))
		}
	} else {
		sb.WriteString("No pairs simulated.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// topByExcess returns up to n rows sorted by excess return descending,
// without mutating the input order. Ties keep the input order, so the
// table head agrees with the sweep's own first-wins reduction.
func topByExcess(rows []*domain.SweepRow, n int) []*domain.SweepRow {
	sorted := make([]*domain.SweepRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExcessReturn > sorted[j].ExcessReturn
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
