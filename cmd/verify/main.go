// Package main replays stored sweep runs against the bar cache and reports
// whether the persisted best-pair metrics still reproduce.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"grid-strategy-lab/internal/pipeline"
	"grid-strategy-lab/internal/storage"
	"grid-strategy-lab/internal/storage/memory"
	pgstore "grid-strategy-lab/internal/storage/postgres"
	"grid-strategy-lab/internal/verification"
)

func main() {
	_ = godotenv.Load()

	// Parse flags
	runID := flag.String("run-id", "", "Run to verify")
	symbol := flag.String("symbol", "", "Verify every stored run for this qualified symbol, e.g. 000001.SZ")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Seed an in-memory demo run and verify that instead")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	// Validate required flags
	if *runID != "" && *symbol != "" {
		logger.Fatal("--run-id and --symbol are mutually exclusive")
	}
	if !*useMemory {
		if *runID == "" && *symbol == "" {
			logger.Fatal("one of --run-id or --symbol is required")
		}
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory")
		}
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

	// Create stores
	var barStore storage.PriceBarStore = memory.NewPriceBarStore()
	var runStore storage.SweepRunStore = memory.NewSweepRunStore()

	if *useMemory {
		// Seed a full demo run through the real pipeline so there is
		// something to verify.
		opts := pipeline.Options{
			BarStore:      barStore,
			RunStore:      runStore,
			TradeStore:    memory.NewTradeRecordStore(),
			PointStore:    memory.NewSweepPointStore(),
			SnapshotStore: memory.NewSnapshotStore(),
		}
		summary, err := pipeline.SeedDemoRun(ctx, opts)
		if err != nil {
			logger.Fatalf("seed demo run: %v", err)
		}
		logger.Printf("Seeded demo run %s", summary.RunID)
		if *runID == "" && *symbol == "" {
			*runID = summary.RunID
		}
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		barStore = pgstore.NewPriceBarStore(pool)
		runStore = pgstore.NewSweepRunStore(pool)
	}

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		RunStore: runStore,
		BarStore: barStore,
	})

	if *runID != "" {
		logger.Printf("Verifying run %s", *runID)
		result, err := verifier.VerifyRun(ctx, *runID)
		if err != nil {
			if errors.Is(err, verification.ErrRunNotFound) {
				logger.Fatalf("run %s not found", *runID)
			}
			logger.Fatalf("verify failed: %v", err)
		}

		if *outputJSON {
			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))
		} else {
			printResult(result)
		}
		if !result.Match {
			os.Exit(1)
		}
		return
	}

	logger.Printf("Verifying all runs for %s", *symbol)
	report, err := verifier.VerifySymbol(ctx, *symbol)
	if err != nil {
		logger.Fatalf("verify failed: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		printReport(*symbol, report)
	}
	if report.DivergentRuns > 0 {
		os.Exit(1)
	}
}

// printResult outputs one human-readable verification result.
func printResult(r *verification.VerificationResult) {
	fmt.Println()
	fmt.Println("=== Verification Result ===")
	fmt.Printf("Run ID:            %s\n", r.RunID)
	fmt.Printf("Match:             %s\n", matchWord(r.Match))
	fmt.Printf("Stored Excess:     %.4f%%\n", r.StoredExcess*100)
	fmt.Printf("Replayed Excess:   %.4f%%\n", r.ReplayedExcess*100)
	printDivergences(r.Divergences)
}

// printReport outputs a human-readable batch report.
func printReport(symbol string, rep *verification.VerificationReport) {
	fmt.Println()
	fmt.Println("=== Verification Report ===")
	fmt.Printf("Symbol:            %s\n", symbol)
	fmt.Printf("Total Runs:        %d\n", rep.TotalRuns)
	fmt.Printf("Matched:           %d\n", rep.MatchedRuns)
	fmt.Printf("Divergent:         %d\n", rep.DivergentRuns)

	for _, r := range rep.Results {
		fmt.Println()
		fmt.Printf("Run %s: %s\n", r.RunID, matchWord(r.Match))
		printDivergences(r.Divergences)
	}
}

func printDivergences(divergences []verification.FieldDivergence) {
	if len(divergences) == 0 {
		return
	}
	fmt.Println("Divergences:")
	for _, d := range divergences {
		fmt.Printf("  %-18s stored %v, replayed %v\n", d.Field+":", d.Expected, d.Actual)
	}
}

func matchWord(match bool) string {
	if match {
		return "MATCH"
	}
	return "DIVERGED"
}
