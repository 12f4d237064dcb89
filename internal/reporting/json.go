package reporting

import (
	"encoding/json"
	"time"
)

// resultsDocument is the wire shape of the results JSON artifact. Field
// names stay snake_case so downstream tooling reads the file without a
// schema mapping.
type resultsDocument struct {
	RunID          string         `json:"run_id"`
	Symbol         string         `json:"symbol"`
	GeneratedAt    time.Time      `json:"generated_at"`
	BestParameters *parametersDoc `json:"best_parameters"`
	BestResult     *bestResultDoc `json:"best_result"`
	AllResults     []sweepRowDoc  `json:"all_results"`
	Request        requestDoc     `json:"request"`
}

type parametersDoc struct {
	UpRatio   float64 `json:"up_ratio"`
	DownRatio float64 `json:"down_ratio"`
}

type bestResultDoc struct {
	UpRatio         float64 `json:"up_ratio"`
	DownRatio       float64 `json:"down_ratio"`
	GridCount       int     `json:"grid_count"`
	GridCash        float64 `json:"grid_cash"`
	TotalReturn     float64 `json:"total_return"`
	AnnualReturn    float64 `json:"annual_return"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	StockReturn     float64 `json:"stock_return"`
	ExcessReturn    float64 `json:"excess_return"`
	TotalTrades     int     `json:"total_trades"`
	BuyTrades       int     `json:"buy_trades"`
	SellTrades      int     `json:"sell_trades"`
	FinalCash       float64 `json:"final_cash"`
	FinalStockValue float64 `json:"final_stock_value"`
	FinalTotalValue float64 `json:"final_total_value"`
}

type sweepRowDoc struct {
	UpRatio      float64 `json:"up_ratio"`
	DownRatio    float64 `json:"down_ratio"`
	ExcessReturn float64 `json:"excess_return"`
	TotalReturn  float64 `json:"total_return"`
	StockReturn  float64 `json:"stock_return"`
	AnnualReturn float64 `json:"annual_return"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	TotalTrades  int     `json:"total_trades"`
}

type requestDoc struct {
	Frequency    string  `json:"frequency"`
	Adjust       string  `json:"adjust"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	InitialCash  float64 `json:"initial_cash"`
	MinUpRatio   float64 `json:"min_up_ratio"`
	MaxUpRatio   float64 `json:"max_up_ratio"`
	MinDownRatio float64 `json:"min_down_ratio"`
	MaxDownRatio float64 `json:"max_down_ratio"`
	StepSize     float64 `json:"step_size"`
	DayCount     int     `json:"day_count"`
	Attempted    int     `json:"attempted"`
	Simulated    int     `json:"simulated"`
	Skipped      int     `json:"skipped"`
}

// RenderJSON renders the results JSON artifact. best_parameters and
// best_result are null for runs without a viable result.
func RenderJSON(r *RunReport) ([]byte, error) {
	doc := resultsDocument{
		RunID:       r.Run.RunID,
		Symbol:      r.Run.Symbol,
		GeneratedAt: r.GeneratedAt,
		AllResults:  make([]sweepRowDoc, 0, len(r.Rows)),
		Request: requestDoc{
			Frequency:    r.Run.Frequency.String(),
			Adjust:       r.Run.Adjust.String(),
			StartDate:    r.Run.StartDate.Format("2006-01-02"),
			EndDate:      r.Run.EndDate.Format("2006-01-02"),
			InitialCash:  r.Run.InitialCash,
			MinUpRatio:   r.Run.MinUpRatio,
			MaxUpRatio:   r.Run.MaxUpRatio,
			MinDownRatio: r.Run.MinDownRatio,
			MaxDownRatio: r.Run.MaxDownRatio,
			StepSize:     r.Run.StepSize,
			DayCount:     r.Run.DayCount,
			Attempted:    r.Run.Attempted,
			Simulated:    r.Run.Simulated,
			Skipped:      r.Run.Skipped,
		},
	}

	if best := r.Best; best != nil {
		doc.BestParameters = &parametersDoc{UpRatio: best.UpRatio, DownRatio: best.DownRatio}
		doc.BestResult = &bestResultDoc{
			UpRatio:         best.UpRatio,
			DownRatio:       best.DownRatio,
			GridCount:       best.GridCount,
			GridCash:        best.GridCash,
			TotalReturn:     best.TotalReturn,
			AnnualReturn:    best.AnnualReturn,
			MaxDrawdown:     best.MaxDrawdown,
			SharpeRatio:     best.SharpeRatio,
			StockReturn:     best.StockReturn,
			ExcessReturn:    best.ExcessReturn,
			TotalTrades:     best.TotalTrades,
			BuyTrades:       best.BuyTrades,
			SellTrades:      best.SellTrades,
			FinalCash:       best.FinalCash,
			FinalStockValue: best.FinalStockValue,
			FinalTotalValue: best.FinalTotalValue,
		}
	}

	for _, row := range r.Rows {
		doc.AllResults = append(doc.AllResults, sweepRowDoc{
			UpRatio:      row.UpRatio,
			DownRatio:    row.DownRatio,
			ExcessReturn: row.ExcessReturn,
			TotalReturn:  row.TotalReturn,
			StockReturn:  row.StockReturn,
			AnnualReturn: row.AnnualReturn,
			MaxDrawdown:  row.MaxDrawdown,
			SharpeRatio:  row.SharpeRatio,
			TotalTrades:  row.TotalTrades,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}
