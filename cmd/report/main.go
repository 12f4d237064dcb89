// Package main re-renders the report artifacts of a stored sweep run from
// its persisted parts, without re-running any simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"grid-strategy-lab/internal/pipeline"
	"grid-strategy-lab/internal/reporting"
	"grid-strategy-lab/internal/storage"
	chstore "grid-strategy-lab/internal/storage/clickhouse"
	"grid-strategy-lab/internal/storage/memory"
	pgstore "grid-strategy-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	// Parse flags
	runID := flag.String("run-id", "", "Run to render (required unless --use-memory)")
	outputDir := flag.String("output-dir", "output", "Directory for report artifacts")
	topRows := flag.Int("top-rows", reporting.DefaultTopRows, "Markdown sweep table row cap (0 keeps every row)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Seed an in-memory demo run and render that instead")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required when not using --use-memory")
		fmt.Fprintln(os.Stderr, "Use --use-memory to render a seeded demo run instead")
		os.Exit(1)
	}
	if !*useMemory && *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-id is required")
		os.Exit(1)
	}

	// Create stores based on mode
	var (
		runStore      storage.SweepRunStore
		tradeStore    storage.TradeRecordStore
		pointStore    storage.SweepPointStore
		snapshotStore storage.SnapshotStore
	)

	if *useMemory {
		var err error
		runStore, tradeStore, pointStore, snapshotStore, err = createMemoryStores(ctx, runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding demo run: %v\n", err)
			os.Exit(1)
		}
	} else {
		var cleanup func()
		var err error
		runStore, tradeStore, pointStore, snapshotStore, cleanup, err = createDatabaseStores(ctx, *postgresDSN, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
	}

	// Load the persisted parts
	run, err := runStore.GetByID(ctx, *runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: run %s not found\n", *runID)
		} else {
			fmt.Fprintf(os.Stderr, "Error loading run: %v\n", err)
		}
		os.Exit(1)
	}

	trades, err := tradeStore.GetByRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %v\n", err)
		os.Exit(1)
	}

	snapshots, err := snapshotStore.GetByRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshots: %v\n", err)
		os.Exit(1)
	}

	rows, err := pointStore.GetByRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sweep points: %v\n", err)
		os.Exit(1)
	}

	// Rebuild the winning result and render
	best := reporting.BestFromRun(run, trades, snapshots)

	gen := reporting.NewGenerator(*outputDir).WithTopRows(*topRows)
	artifacts, err := gen.Generate(&reporting.RunReport{
		Run:  run,
		Best: best,
		Rows: rows,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report for run %s generated successfully:\n", run.RunID)
	for _, path := range artifacts.List() {
		fmt.Printf("  - %s\n", path)
	}
}

// createMemoryStores seeds a full demo run through the real pipeline and
// returns stores holding it. When runID is empty it is set to the seeded
// run's ID.
func createMemoryStores(ctx context.Context, runID *string) (
	storage.SweepRunStore,
	storage.TradeRecordStore,
	storage.SweepPointStore,
	storage.SnapshotStore,
	error,
) {
	opts := pipeline.Options{
		BarStore:      memory.NewPriceBarStore(),
		RunStore:      memory.NewSweepRunStore(),
		TradeStore:    memory.NewTradeRecordStore(),
		PointStore:    memory.NewSweepPointStore(),
		SnapshotStore: memory.NewSnapshotStore(),
	}

	summary, err := pipeline.SeedDemoRun(ctx, opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if *runID == "" {
		*runID = summary.RunID
	}
	fmt.Printf("Seeded demo run %s\n", summary.RunID)

	return opts.RunStore, opts.TradeStore, opts.PointStore, opts.SnapshotStore, nil
}

// createDatabaseStores connects to PostgreSQL and ClickHouse and creates the
// stores the report reads from.
func createDatabaseStores(ctx context.Context, postgresDSN, clickhouseDSN string) (
	storage.SweepRunStore,
	storage.TradeRecordStore,
	storage.SweepPointStore,
	storage.SnapshotStore,
	func(),
	error,
) {
	// Connect to PostgreSQL
	pgPool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Connect to ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pgPool.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	// Postgres stores (run headers + trade ledgers)
	runStore := pgstore.NewSweepRunStore(pgPool)
	tradeStore := pgstore.NewTradeRecordStore(pgPool)

	// ClickHouse stores (sweep points + daily snapshots)
	pointStore := chstore.NewSweepPointStore(chConn)
	snapshotStore := chstore.NewSnapshotStore(chConn)

	cleanup := func() {
		chConn.Close()
		pgPool.Close()
	}

	return runStore, tradeStore, pointStore, snapshotStore, cleanup, nil
}
