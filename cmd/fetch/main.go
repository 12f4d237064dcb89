// Package main fetches historical bars for one symbol/window and caches
// them into the price bar store.
package main

import (
	"context"
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
	"grid-strategy-lab/internal/storage"
	"grid-strategy-lab/internal/storage/memory"
	"grid-strategy-lab/internal/storage/migrations"
	pgstore "grid-strategy-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	symbol := flag.String("symbol", "", "Stock code without venue, e.g. 000001 (required)")
	market := flag.String("market", "SZ", "Venue code: SZ or SH")
	frequency := flag.String("frequency", "d", "Bar interval: 5, 15, 30, 60, d, w, m, y")
	adjust := flag.String("adjust", "n", "Price adjustment: n, f, b, fr, br")
	startDate := flag.String("start-date", "", "Window start (YYYYMMDD), default one year back")
	endDate := flag.String("end-date", "", "Window end (YYYYMMDD), default today")

	// Source
	token := flag.String("token", os.Getenv("ZHITU_TOKEN"), "Quote API token")
	baseURL := flag.String("base-url", os.Getenv("ZHITU_BASE_URL"), "Quote API base URL")
	useStub := flag.Bool("use-stub", false, "Generate synthetic bars instead of calling the API")
	csvDir := flag.String("csv-dir", "", "Read bars from local CSV cache files in this directory")

	// Storage
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run, nothing cached)")
	migrate := flag.Bool("migrate", false, "Apply embedded PostgreSQL migrations before fetching")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

	// Validate required flags
	if *symbol == "" {
		logger.Fatal("--symbol is required")
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

		if *migrate {
			logger.Println("Applying postgres migrations")
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("apply migrations: %v", err)
			}
		}

		barStore = pgstore.NewPriceBarStore(pool)
	}

	// Create source
	source, err := newSource(*useStub, *csvDir, *baseURL, *token)
	if err != nil {
		logger.Fatal(err)
	}

	logger.Printf("Fetching %s %s/%s %s..%s",
		req.QualifiedSymbol(), req.Frequency, req.EffectiveAdjust(),
		req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))

	bars, err := marketdata.FetchWithRetry(ctx, source, req)
	if err != nil {
		logger.Fatalf("fetch failed: %v", err)
	}

	if err := barStore.SaveBatch(ctx, bars); err != nil {
		logger.Fatalf("cache bars: %v", err)
	}

	total, err := barStore.Count(ctx, req.QualifiedSymbol(), req.Frequency, req.EffectiveAdjust())
	if err != nil {
		logger.Fatalf("count cached bars: %v", err)
	}

	fmt.Printf("Fetched %d bars for %s (%s/%s)\n",
		len(bars), req.QualifiedSymbol(), req.Frequency, req.EffectiveAdjust())
	if *useMemory {
		fmt.Println("Dry run: bars were kept in memory only")
	} else {
		fmt.Printf("Cache now holds %d bars for this series\n", total)
	}
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

	start, end, err := parseWindow(startDate, endDate)
	if err != nil {
		return req, err
	}
	req.StartDate, req.EndDate = start, end
	return req, nil
}

// parseWindow parses the date flags, defaulting to the last calendar year.
func parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 0)

	var err error
	if endDate != "" {
		if end, err = parseDate(endDate); err != nil {
			return start, end, fmt.Errorf("parse end-date: %w", err)
		}
		start = end.AddDate(-1, 0, 0)
	}
	if startDate != "" {
		if start, err = parseDate(startDate); err != nil {
			return start, end, fmt.Errorf("parse start-date: %w", err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
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
