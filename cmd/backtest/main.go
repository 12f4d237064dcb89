// Package main runs one grid simulation for a single (up_ratio, down_ratio)
// pair and prints the full result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/marketdata"
	"grid-strategy-lab/internal/normalization"
	"grid-strategy-lab/internal/observability"
	"grid-strategy-lab/internal/simulation"
	"grid-strategy-lab/internal/storage"
	"grid-strategy-lab/internal/storage/memory"
	pgstore "grid-strategy-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	// Parse flags
	symbol := flag.String("symbol", "", "Stock code without venue, e.g. 000001 (required)")
	market := flag.String("market", "SZ", "Venue code: SZ or SH")
	frequency := flag.String("frequency", "d", "Bar interval: 5, 15, 30, 60, d, w, m, y")
	adjust := flag.String("adjust", "n", "Price adjustment: n, f, b, fr, br")
	startDate := flag.String("start-date", "", "Window start (YYYYMMDD), default one year back")
	endDate := flag.String("end-date", "", "Window end (YYYYMMDD), default today")

	// Strategy parameters
	upRatio := flag.Float64("up-ratio", 0, "Sell trigger ratio, e.g. 0.03 (required)")
	downRatio := flag.Float64("down-ratio", 0, "Buy trigger ratio, e.g. 0.02 (required)")
	initialCash := flag.Float64("initial-cash", 100000, "Starting capital")

	// Source
	token := flag.String("token", os.Getenv("ZHITU_TOKEN"), "Quote API token")
	baseURL := flag.String("base-url", os.Getenv("ZHITU_BASE_URL"), "Quote API base URL")
	useStub := flag.Bool("use-stub", false, "Generate synthetic bars instead of calling the API")
	csvDir := flag.String("csv-dir", "", "Read bars from local CSV cache files in this directory")

	// Storage
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	params := domain.GridParams{
		UpRatio:     *upRatio,
		DownRatio:   *downRatio,
		InitialCash: *initialCash,
	}
	if err := params.Validate(); err != nil {
		logger.Fatalf("invalid parameters: %v", err)
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required when not using --use-memory")
	}

	req, err := buildRequest(*symbol, *market, *frequency, *adjust, *startDate, *endDate)
	if err != nil {
		logger.Fatalf("invalid request: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create store
	var barStore storage.PriceBarStore = memory.NewPriceBarStore()
	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		barStore = pgstore.NewPriceBarStore(pool)
	}

	points, err := loadPoints(ctx, logger, barStore, req, *useStub, *csvDir, *baseURL, *token)
	if err != nil {
		logger.Fatalf("load prices: %v", err)
	}

	logger.Printf("Running backtest: %s %s..%s up=%.4f down=%.4f",
		req.QualifiedSymbol(), req.StartDate.Format("2006-01-02"),
		req.EndDate.Format("2006-01-02"), params.UpRatio, params.DownRatio)

	sim := simulation.New(points)
	started := time.Now()
	result, err := sim.Run(params)
	observability.RecordSimulation(time.Since(started).Seconds())
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(req, result, len(points))
	}
}

// loadPoints returns the daily close series for the request window, reading
// the bar cache first and falling back to the configured source.
func loadPoints(
	ctx context.Context,
	logger *log.Logger,
	barStore storage.PriceBarStore,
	req marketdata.FetchRequest,
	useStub bool, csvDir, baseURL, token string,
) ([]*domain.PricePoint, error) {
	// Intraday bars carry a time of day, so the range upper bound moves one
	// day past the inclusive end date.
	bars, err := barStore.GetByRange(ctx, req.QualifiedSymbol(), req.Frequency,
		req.EffectiveAdjust(), req.StartDate, req.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("read bar cache: %w", err)
	}

	if len(bars) == 0 {
		source, err := newSource(useStub, csvDir, baseURL, token)
		if err != nil {
			return nil, fmt.Errorf("no cached bars for %s: %w", req.QualifiedSymbol(), err)
		}
		logger.Printf("Cache miss, fetching %s %s/%s", req.QualifiedSymbol(), req.Frequency, req.EffectiveAdjust())
		bars, err = marketdata.FetchWithRetry(ctx, source, req)
		if err != nil {
			return nil, err
		}
		if err := barStore.SaveBatch(ctx, bars); err != nil {
			return nil, fmt.Errorf("cache bars: %w", err)
		}
	} else {
		logger.Printf("Loaded %d cached bars", len(bars))
	}

	normalization.SortBars(bars)
	return normalization.FilterPoints(normalization.ReduceDaily(bars), req.StartDate, req.EndDate), nil
}

// buildRequest assembles and validates the fetch request.
func buildRequest(symbol, market, frequency, adjust, startDate, endDate string) (marketdata.FetchRequest, error) {
	req := marketdata.FetchRequest{
		Symbol:    symbol,
		Market:    market,
		Frequency: domain.Frequency(frequency),
		Adjust:    domain.Adjust(adjust),
	}
	if !req.Frequency.IsValid() {
		return req, fmt.Errorf("invalid frequency %q", frequency)
	}
	if !req.Adjust.IsValid() {
		return req, fmt.Errorf("invalid adjust %q", adjust)
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 0)
	var err error
	if endDate != "" {
		if end, err = parseDate(endDate); err != nil {
			return req, fmt.Errorf("parse end-date: %w", err)
		}
		start = end.AddDate(-1, 0, 0)
	}
	if startDate != "" {
		if start, err = parseDate(startDate); err != nil {
			return req, fmt.Errorf("parse start-date: %w", err)
		}
	}
	if end.Before(start) {
		return req, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	req.StartDate, req.EndDate = start, end
	return req, nil
}

// parseDate accepts YYYYMMDD and YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q, want YYYYMMDD", s)
}

// newSource picks the bar source: synthetic walk, local CSV cache, or the
// quote API.
func newSource(useStub bool, csvDir, baseURL, token string) (marketdata.Source, error) {
	switch {
	case useStub:
		return marketdata.NewStubSource(), nil
	case csvDir != "":
		return marketdata.NewCSVSource(csvDir), nil
	default:
		if token == "" {
			return nil, fmt.Errorf("--token (or ZHITU_TOKEN) is required for API fetches; use --use-stub or --csv-dir for offline data")
		}
		opts := []marketdata.ClientOption{marketdata.WithToken(token)}
		if baseURL != "" {
			opts = append(opts, marketdata.WithBaseURL(baseURL))
		}
		return marketdata.NewClient(opts...), nil
	}
}

// printResult outputs the human-readable simulation result.
func printResult(req marketdata.FetchRequest, r *domain.StrategyResult, days int) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Symbol:             %s\n", req.QualifiedSymbol())
	fmt.Printf("Window:             %s .. %s (%d trading days)\n",
		req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), days)
	fmt.Printf("Parameters:         up %.2f%% / down %.2f%%\n", r.UpRatio*100, r.DownRatio*100)
	fmt.Printf("Grid:               %d slices of %.2f\n", r.GridCount, r.GridCash)
	fmt.Println()

	fmt.Println("Returns:")
	fmt.Printf("  Total Return:     %.2f%%\n", r.TotalReturn*100)
	fmt.Printf("  Annual Return:    %.2f%%\n", r.AnnualReturn*100)
	fmt.Printf("  Buy-and-Hold:     %.2f%%\n", r.StockReturn*100)
	fmt.Printf("  Excess Return:    %.2f%%\n", r.ExcessReturn*100)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", r.MaxDrawdown*100)
	fmt.Printf("  Sharpe Ratio:     %.4f\n", r.SharpeRatio)
	fmt.Println()

	fmt.Println("Trades:")
	fmt.Printf("  Total:            %d (%d buys, %d sells)\n", r.TotalTrades, r.BuyTrades, r.SellTrades)
	fmt.Println()

	fmt.Println("Final State:")
	fmt.Printf("  Cash:             %.2f\n", r.FinalCash)
	fmt.Printf("  Stock Value:      %.2f\n", r.FinalStockValue)
	fmt.Printf("  Total Value:      %.2f\n", r.FinalTotalValue)
}
