package reporting

import (
	"fmt"
	"strings"

	"grid-strategy-lab/internal/domain"
)

// RenderSweepCSV renders the sweep table as CSV string.
func RenderSweepCSV(rows []*domain.SweepRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("up_ratio,down_ratio,excess_return,total_return,stock_return,")
	sb.WriteString("annual_return,max_drawdown,sharpe_ratio,")
	sb.WriteString("total_trades,buy_trades,sell_trades\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%d,%d\n",
			r.UpRatio,
			r.DownRatio,
			r.ExcessReturn,
			r.TotalReturn,
			r.StockReturn,
			r.AnnualReturn,
			r.MaxDrawdown,
			r.SharpeRatio,
			r.TotalTrades,
			r.BuyTrades,
			r.SellTrades,
		))
	}

	return sb.String()
}
