// Package main runs a full parameter sweep for one symbol: load or fetch
// bars, enumerate the (up_ratio, down_ratio) grid in parallel, persist the
// winning run and render its report artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/marketdata"
	"grid-strategy-lab/internal/observability"
	"grid-strategy-lab/internal/pipeline"
	"grid-strategy-lab/internal/reporting"
	"grid-strategy-lab/internal/storage"
	chstore "grid-strategy-lab/internal/storage/clickhouse"
	"grid-strategy-lab/internal/storage/memory"
	"grid-strategy-lab/internal/storage/migrations"
	pgstore "grid-strategy-lab/internal/storage/postgres"
)

// allStores holds every storage implementation the pipeline writes to.
type allStores struct {
	barStore      storage.PriceBarStore
	runStore      storage.SweepRunStore
	tradeStore    storage.TradeRecordStore
	pointStore    storage.SweepPointStore
	snapshotStore storage.SnapshotStore
}

func main() {
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	market := flag.String("market", "SZ", "Venue code: SZ or SH")
	frequency := flag.String("frequency", "d", "Bar interval: 5, 15, 30, 60, d, w, m, y")
	adjust := flag.String("adjust", "n", "Price adjustment: n, f, b, fr, br")
	startDate := flag.String("start-date", "", "Window start (YYYYMMDD), default one year back")
	endDate := flag.String("end-date", "", "Window end (YYYYMMDD), default today")

	// Sweep parameters
	initialCash := flag.Float64("initial-cash", 100000, "Starting capital per simulation")
	minUpRatio := flag.Float64("min-up-ratio", 0.01, "Lowest sell trigger ratio")
	maxUpRatio := flag.Float64("max-up-ratio", 0.1, "Highest sell trigger ratio")
	minDownRatio := flag.Float64("min-down-ratio", 0.01, "Lowest buy trigger ratio")
	maxDownRatio := flag.Float64("max-down-ratio", 0.1, "Highest buy trigger ratio")
	stepSize := flag.Float64("step-size", 0.001, "Ratio grid increment on both axes")
	workers := flag.Int("workers", 0, "Parallel simulation workers (0 = all CPUs)")

	// Source
	token := flag.String("token", os.Getenv("ZHITU_TOKEN"), "Quote API token")
	baseURL := flag.String("base-url", os.Getenv("ZHITU_BASE_URL"), "Quote API base URL")
	useStub := flag.Bool("use-stub", false, "Generate synthetic bars instead of calling the API")
	csvDir := flag.String("csv-dir", "", "Read bars from local CSV cache files in this directory")

	// Storage
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations to both databases first")

	// Output
	outputDir := flag.String("output-dir", "output", "Directory for report artifacts")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[sweep] ", log.LstdFlags)

	if flag.NArg() != 1 {
		logger.Fatal("usage: sweep [flags] SYMBOL (stock code without venue, e.g. 000001)")
	}
	symbol := flag.Arg(0)

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory (bars, runs, trades)")
		}
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory (sweep points, snapshots)")
		}
	}

	req, err := buildRequest(symbol, *market, *frequency, *adjust, *startDate, *endDate,
		*initialCash, *minUpRatio, *maxUpRatio, *minDownRatio, *maxDownRatio, *stepSize)
	if err != nil {
		logger.Fatalf("invalid request: %v", err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, *migrate)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	// Create source. Nil is fine: the pipeline then serves cached bars only.
	source, err := newSource(*useStub, *csvDir, *baseURL, *token)
	if err != nil {
		logger.Printf("No fetch source configured (%v), relying on the bar cache", err)
		source = nil
	}

	p := pipeline.New(pipeline.Options{
		BarStore:      stores.barStore,
		RunStore:      stores.runStore,
		TradeStore:    stores.tradeStore,
		PointStore:    stores.pointStore,
		SnapshotStore: stores.snapshotStore,
		Source:        source,
		Reports:       reporting.NewGenerator(*outputDir),
		Workers:       *workers,
		Progress:      progressLogger(logger),
		Logger:        logger,
	})

	logger.Printf("Sweeping %s %s..%s up %.3f..%.3f down %.3f..%.3f step %.3f",
		req.Fetch.QualifiedSymbol(),
		req.Fetch.StartDate.Format("2006-01-02"), req.Fetch.EndDate.Format("2006-01-02"),
		req.Bounds.MinUp, req.Bounds.MaxUp, req.Bounds.MinDown, req.Bounds.MaxDown, req.Bounds.Step)

	started := time.Now()
	summary, err := p.Run(ctx, req)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Println("Shutdown complete")
			return
		}
		logger.Fatalf("Error: %v", err)
	}

	logger.Printf("Sweep finished in %s", time.Since(started).Round(time.Millisecond))
	printSummary(summary, req)
}

// buildRequest assembles and validates the sweep request.
func buildRequest(
	symbol, market, frequency, adjust, startDate, endDate string,
	initialCash, minUp, maxUp, minDown, maxDown, step float64,
) (pipeline.Request, error) {
	req := pipeline.Request{
		Fetch: marketdata.FetchRequest{
			Symbol:    symbol,
			Market:    market,
			Frequency: domain.Frequency(frequency),
			Adjust:    domain.Adjust(adjust),
		},
		InitialCash: initialCash,
		Bounds: domain.SweepBounds{
			MinUp:   minUp,
			MaxUp:   maxUp,
			MinDown: minDown,
			MaxDown: maxDown,
			Step:    step,
		},
	}
	if !req.Fetch.Frequency.IsValid() {
		return req, fmt.Errorf("invalid frequency %q", frequency)
	}
	if !req.Fetch.Adjust.IsValid() {
		return req, fmt.Errorf("invalid adjust %q", adjust)
	}
	if err := req.Bounds.Validate(); err != nil {
		return req, err
	}
	if initialCash <= 0 {
		return req, fmt.Errorf("initial-cash must be > 0, got %g", initialCash)
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
	req.Fetch.StartDate, req.Fetch.EndDate = start, end
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
			return nil, fmt.Errorf("no --token or ZHITU_TOKEN set")
		}
		opts := []marketdata.ClientOption{marketdata.WithToken(token)}
		if baseURL != "" {
			opts = append(opts, marketdata.WithBaseURL(baseURL))
		}
		return marketdata.NewClient(opts...), nil
	}
}

// createStores builds the five stores: PostgreSQL for bars, run headers and
// trade ledgers, ClickHouse for sweep points and daily snapshots.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory, migrate bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			barStore:      memory.NewPriceBarStore(),
			runStore:      memory.NewSweepRunStore(),
			tradeStore:    memory.NewTradeRecordStore(),
			pointStore:    memory.NewSweepPointStore(),
			snapshotStore: memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse. Migrating also creates the database when missing.
	var chConn *chstore.Conn
	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		chConn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
	} else {
		chConn, err = chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}

	stores := &allStores{
		// PostgreSQL stores (bars + run headers + trade ledgers)
		barStore:   pgstore.NewPriceBarStore(pool),
		runStore:   pgstore.NewSweepRunStore(pool),
		tradeStore: pgstore.NewTradeRecordStore(pool),

		// ClickHouse stores (analytics)
		pointStore:    chstore.NewSweepPointStore(chConn),
		snapshotStore: chstore.NewSnapshotStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// progressLogger logs roughly every tenth of the sweep.
func progressLogger(logger *log.Logger) func(done, total int) {
	return func(done, total int) {
		step := total / 10
		if step < 1 {
			step = 1
		}
		if done%step == 0 || done == total {
			logger.Printf("Sweep progress: %d/%d pairs (%d%%)", done, total, done*100/total)
		}
	}
}

// printSummary outputs the human-readable sweep outcome.
func printSummary(s *pipeline.RunSummary, req pipeline.Request) {
	origin := "fetched"
	if s.FromCache {
		origin = "cached"
	}

	fmt.Println()
	fmt.Println("=== Sweep Result ===")
	fmt.Printf("Run ID:             %s\n", s.RunID)
	fmt.Printf("Symbol:             %s\n", s.Symbol)
	fmt.Printf("Window:             %s .. %s\n",
		req.Fetch.StartDate.Format("2006-01-02"), req.Fetch.EndDate.Format("2006-01-02"))
	fmt.Printf("Bars:               %d (%s), %d trading days\n", s.Bars, origin, s.Days)
	fmt.Printf("Pairs:              %d attempted, %d simulated, %d skipped\n",
		s.Attempted, s.Simulated, s.Skipped)
	if s.Best != nil {
		fmt.Printf("Best Parameters:    up %.2f%% / down %.2f%%\n", s.Best.UpRatio*100, s.Best.DownRatio*100)
		fmt.Printf("Best Excess Return: %.2f%%\n", s.BestExcess*100)
	} else {
		fmt.Println("Best Parameters:    none (no pair could be simulated)")
	}
	if s.AlreadyStored {
		fmt.Println("Storage:            run already stored, artifacts refreshed")
	}
	if s.Artifacts != nil {
		fmt.Println("Artifacts:")
		for _, path := range s.Artifacts.List() {
			fmt.Printf("  - %s\n", path)
		}
	}
}
