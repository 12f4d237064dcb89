package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes the run as an Excel workbook: a Summary sheet with
// the run header and best metrics, a Sweep sheet with the full table and,
// for viable runs, a Trades sheet with the best pair's ledger.
func WriteWorkbook(path string, r *RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, r); err != nil {
		return err
	}
	if err := writeSweepSheet(f, r); err != nil {
		return err
	}
	if r.Best != nil {
		if err := writeTradesSheet(f, r); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r *RunReport) error {
	run := r.Run
	rows := [][2]interface{}{
		{"Run ID", run.RunID},
		{"Symbol", run.Symbol},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Window", fmt.Sprintf("%s to %s", run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"))},
		{"Frequency", run.Frequency.String()},
		{"Adjust", run.Adjust.String()},
		{"Trading Days", run.DayCount},
		{"Initial Cash", run.InitialCash},
		{"Up Ratio Range", fmt.Sprintf("%.3f to %.3f", run.MinUpRatio, run.MaxUpRatio)},
		{"Down Ratio Range", fmt.Sprintf("%.3f to %.3f", run.MinDownRatio, run.MaxDownRatio)},
		{"Step Size", run.StepSize},
		{"Pairs Attempted", run.Attempted},
		{"Pairs Simulated", run.Simulated},
		{"Pairs Skipped", run.Skipped},
	}
	if best := r.Best; best != nil {
		rows = append(rows,
			[2]interface{}{"Best Up Ratio", best.UpRatio},
			[2]interface{}{"Best Down Ratio", best.DownRatio},
			[2]interface{}{"Grid Count", best.GridCount},
			[2]interface{}{"Grid Cash", best.GridCash},
			[2]interface{}{"Total Return", best.TotalReturn},
			[2]interface{}{"Buy & Hold Return", best.StockReturn},
			[2]interface{}{"Excess Return", best.ExcessReturn},
			[2]interface{}{"Annual Return", best.AnnualReturn},
			[2]interface{}{"Max Drawdown", best.MaxDrawdown},
			[2]interface{}{"Sharpe Ratio", best.SharpeRatio},
			[2]interface{}{"Total Trades", best.TotalTrades},
			[2]interface{}{"Buy Trades", best.BuyTrades},
			[2]interface{}{"Sell Trades", best.SellTrades},
			[2]interface{}{"Final Cash", best.FinalCash},
			[2]interface{}{"Final Stock Value", best.FinalStockValue},
			[2]interface{}{"Final Total Value", best.FinalTotalValue},
		)
	} else {
		rows = append(rows, [2]interface{}{"Best Result", "no viable simulation"})
	}

	for i, kv := range rows {
		if err := setRow(f, "Summary", i+1, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return f.SetColWidth("Summary", "A", "B", 24)
}

func writeSweepSheet(f *excelize.File, r *RunReport) error {
	if _, err := f.NewSheet("Sweep"); err != nil {
		return fmt.Errorf("create sweep sheet: %w", err)
	}

	header := []interface{}{
		"up_ratio", "down_ratio", "excess_return", "total_return", "stock_return",
		"annual_return", "max_drawdown", "sharpe_ratio", "total_trades", "buy_trades", "sell_trades",
	}
	if err := setRow(f, "Sweep", 1, header...); err != nil {
		return err
	}
	for i, row := range r.Rows {
		values := []interface{}{
			row.UpRatio, row.DownRatio, row.ExcessReturn, row.TotalReturn, row.StockReturn,
			row.AnnualReturn, row.MaxDrawdown, row.SharpeRatio, row.TotalTrades, row.BuyTrades, row.SellTrades,
		}
		if err := setRow(f, "Sweep", i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func writeTradesSheet(f *excelize.File, r *RunReport) error {
	if _, err := f.NewSheet("Trades"); err != nil {
		return fmt.Errorf("create trades sheet: %w", err)
	}

	header := []interface{}{
		"date", "side", "price", "quantity", "cash_after", "stock_value_after", "total_value_after",
	}
	if err := setRow(f, "Trades", 1, header...); err != nil {
		return err
	}
	for i, tr := range r.Best.Trades {
		values := []interface{}{
			tr.Timestamp.Format("2006-01-02"), tr.Side.String(), tr.Price, tr.Quantity,
			tr.CashAfter, tr.StockValueAfter, tr.TotalValueAfter,
		}
		if err := setRow(f, "Trades", i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values into one sheet row starting at column A.
func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name (%d,%d): %w", col+1, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
