package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"grid-strategy-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.zhituapi.com/hs/history"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// wireDate is the YYYYMMDD layout of the st/et query parameters.
const wireDate = "20060102"

// Client fetches historical bars from the hs-history quote API.
type Client struct {
	baseURL     string
	token       string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithToken sets the API token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a quote API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// barRecord is the compact-key wire form of one bar.
type barRecord struct {
	T  string  `json:"t"`  // bar timestamp
	O  float64 `json:"o"`  // open
	H  float64 `json:"h"`  // high
	L  float64 `json:"l"`  // low
	C  float64 `json:"c"`  // close
	V  float64 `json:"v"`  // volume
	A  float64 `json:"a"`  // amount
	PC float64 `json:"pc"` // previous close
	SF int     `json:"sf"` // suspended flag
}

// FetchBars retrieves bars for the request window:
// GET {base}/{code}.{market}/{freq}/{adjust}?token=&st=&et=
func (c *Client) FetchBars(ctx context.Context, req FetchRequest) ([]*domain.PriceBar, error) {
	adjust := req.EffectiveAdjust()

	endpoint := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, req.QualifiedSymbol(), req.Frequency, adjust)
	query := url.Values{}
	query.Set("token", c.token)
	query.Set("st", req.StartDate.Format(wireDate))
	query.Set("et", req.EndDate.Format(wireDate))

	var records []barRecord
	if err := c.get(ctx, endpoint+"?"+query.Encode(), &records); err != nil {
		return nil, err
	}

	bars := make([]*domain.PriceBar, 0, len(records))
	for _, rec := range records {
		ts, err := parseBarTime(rec.T)
		if err != nil {
			return nil, fmt.Errorf("parse bar time %q: %w", rec.T, err)
		}
		bars = append(bars, &domain.PriceBar{
			Symbol:    req.QualifiedSymbol(),
			Frequency: req.Frequency,
			Adjust:    adjust,
			Timestamp: ts,
			Open:      rec.O,
			High:      rec.H,
			Low:       rec.L,
			Close:     rec.C,
			Volume:    rec.V,
			Amount:    rec.A,
			PrevClose: rec.PC,
			Suspended: rec.SF != 0,
		})
	}
	return bars, nil
}

// get performs a GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, rawURL string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Ensure Client implements Source
var _ Source = (*Client)(nil)

// parseBarTime accepts the datetime layouts the quote API emits: intraday
// bars carry a time of day, daily and coarser bars a date only.
func parseBarTime(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"20060102",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime layout")
}
