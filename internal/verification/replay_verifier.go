package verification

import (
	"context"
	"errors"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/normalization"
	"grid-strategy-lab/internal/simulation"
	"grid-strategy-lab/internal/storage"
	"grid-strategy-lab/internal/sweep"
)

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier interface.
type ReplayVerifier struct {
	runStore storage.SweepRunStore
	barStore storage.PriceBarStore
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore storage.SweepRunStore
	BarStore storage.PriceBarStore
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		runStore: opts.RunStore,
		barStore: opts.BarStore,
	}
}

// VerifyRun verifies a single run by replaying its best simulation.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run header
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Replay simulation over the cached bars
	replayed, err := v.replayRun(ctx, stored)
	if err != nil {
		return nil, err
	}

	// 3. Compare results
	divergences := CompareRun(stored, replayed)

	result := &VerificationResult{
		RunID:       runID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}
	if stored.BestExcessReturn != nil {
		result.StoredExcess = *stored.BestExcessReturn
	}
	if replayed != nil {
		result.ReplayedExcess = replayed.ExcessReturn
	}
	return result, nil
}

// VerifySymbol verifies all stored runs for a symbol.
func (v *ReplayVerifier) VerifySymbol(ctx context.Context, symbol string) (*VerificationReport, error) {
	runs, err := v.runStore.ListBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			// Record error as divergence
			errResult := VerificationResult{
				RunID: run.RunID,
				Match: false,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			}
			if run.BestExcessReturn != nil {
				errResult.StoredExcess = *run.BestExcessReturn
			}
			report.Results = append(report.Results, errResult)
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// replayRun rebuilds the run's daily series from the cached bars and
// re-simulates. Returns nil when the replay finds no viable simulation:
// for runs that stored a best pair that pair is re-run; for runs that
// stored none, one representative pair probes whether the grid could
// simulate at all, since any strictly positive pair over the same series
// either all succeed or all fail.
func (v *ReplayVerifier) replayRun(ctx context.Context, run *domain.SweepRun) (*domain.StrategyResult, error) {
	// GetByRange is timestamp-inclusive; reach one day past the window end
	// and trim by calendar day afterwards.
	bars, err := v.barStore.GetByRange(ctx, run.Symbol, run.Frequency, run.Adjust,
		run.StartDate, run.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	normalization.SortBars(bars)
	points := normalization.FilterPoints(normalization.ReduceDaily(bars), run.StartDate, run.EndDate)

	params, ok := v.replayParams(run)
	if !ok {
		return nil, nil
	}

	result, err := simulation.New(points).Run(params)
	if err != nil {
		if errors.Is(err, simulation.ErrInsufficientData) || errors.Is(err, simulation.ErrDegenerateParams) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

// replayParams picks the parameters to re-simulate: the stored best pair
// when the run has one, otherwise the first strictly positive pair of the
// stored grid. ok is false when the grid holds no such pair.
func (v *ReplayVerifier) replayParams(run *domain.SweepRun) (domain.GridParams, bool) {
	if run.Viable() {
		return domain.GridParams{
			UpRatio:     *run.BestUpRatio,
			DownRatio:   *run.BestDownRatio,
			InitialCash: run.InitialCash,
		}, true
	}

	downAxis := sweep.BuildAxis(run.MinDownRatio, run.MaxDownRatio, run.StepSize)
	for _, u := range sweep.BuildAxis(run.MinUpRatio, run.MaxUpRatio, run.StepSize) {
		if u <= 0 {
			continue
		}
		for _, d := range downAxis {
			if d <= 0 {
				continue
			}
			return domain.GridParams{UpRatio: u, DownRatio: d, InitialCash: run.InitialCash}, true
		}
	}
	return domain.GridParams{}, false
}
