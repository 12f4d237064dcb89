package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grid-strategy-lab/internal/domain"
)

// Empty-response retry policy. The quote API sometimes answers an otherwise
// valid window with an empty list, so a fetch is repeated a few times before
// the window is declared empty.
const (
	FetchAttempts  = 3
	FetchRetryWait = 2 * time.Second
)

// ErrNoBars reports that a source returned no bars for the request window
// after all attempts.
var ErrNoBars = errors.New("no bars for request window")

// retryPolicy holds the empty-response retry knobs.
type retryPolicy struct {
	attempts int
	wait     time.Duration
}

// RetryOption configures FetchWithRetry.
type RetryOption func(*retryPolicy)

// WithAttempts overrides the number of fetch attempts.
func WithAttempts(n int) RetryOption {
	return func(p *retryPolicy) {
		p.attempts = n
	}
}

// WithWait overrides the wait between attempts.
func WithWait(d time.Duration) RetryOption {
	return func(p *retryPolicy) {
		p.wait = d
	}
}

// FetchWithRetry fetches bars from src, repeating the call when it returns
// an empty list. Fetch errors pass through unchanged on the spot; only empty
// responses are retried. Returns ErrNoBars when every attempt came back
// empty.
func FetchWithRetry(ctx context.Context, src Source, req FetchRequest, opts ...RetryOption) ([]*domain.PriceBar, error) {
	policy := retryPolicy{attempts: FetchAttempts, wait: FetchRetryWait}
	for _, opt := range opts {
		opt(&policy)
	}
	if policy.attempts < 1 {
		policy.attempts = 1
	}

	for attempt := 1; ; attempt++ {
		bars, err := src.FetchBars(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(bars) > 0 {
			return bars, nil
		}
		if attempt >= policy.attempts {
			return nil, fmt.Errorf("%w: %s %s..%s", ErrNoBars,
				req.QualifiedSymbol(), req.StartDate.Format(wireDate), req.EndDate.Format(wireDate))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.wait):
		}
	}
}
