// Package marketdata fetches the market data the application stores: Alpha
// Vantage quotes and overviews, the Yahoo Finance quote page used when Alpha
// Vantage has nothing, and Ámbito dollar exchange rates.
//
// Alpha Vantage keys are tried in order. A key that is rate limited falls
// back to the next one; every other failure is returned immediately.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Alpha Vantage API root
	DefaultBaseURL = "https://www.alphavantage.co"

	// DefaultTimeout bounds each HTTP request
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerMinute is the free tier allowance
	DefaultRequestsPerMinute = 5
)

var (
	// ErrMissingAPIKey is returned when no usable key is configured
	ErrMissingAPIKey = errors.New("alpha vantage API key is missing: set ALPHAVANTAGE_API_KEY")

	// ErrNoData is returned when the API answers without a payload for the symbol
	ErrNoData = errors.New("alpha vantage returned no data")
)

// RateLimitError reports an API diagnostic that signals a rate limit
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "alpha vantage rate limit: " + e.Message
}

var rateLimitSignals = []string{
	"standard api rate limit",
	"alphavantage.co/premium",
	"premium plan",
	"call frequency",
	"rate limit",
}

func isRateLimit(message string) bool {
	lowered := strings.ToLower(message)
	for _, signal := range rateLimitSignals {
		if strings.Contains(lowered, signal) {
			return true
		}
	}
	return false
}

// Keys returns the keys to try: override alone when set, otherwise the
// configured keys trimmed and de-duplicated in order.
func Keys(override string, configured ...string) ([]string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return []string{override}, nil
	}
	var keys []string
	seen := make(map[string]bool)
	for _, k := range configured {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, ErrMissingAPIKey
	}
	return keys, nil
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another server
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit sets the pacing applied to each key. Quotas are per key, so
// every key gets its own limiter.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limit, c.burst = limit, burst }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client calls the Alpha Vantage query API
type Client struct {
	keys    []string
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a client for keys. Use Keys to build the list.
func NewClient(keys []string, opts ...Option) (*Client, error) {
	if len(keys) == 0 {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		keys:    keys,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),

		limit:    rate.Every(time.Minute / DefaultRequestsPerMinute),
		burst:    1,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Quote is the GLOBAL_QUOTE payload
type Quote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`

	// Source names the provider that answered
	Source string `json:"-"`
}

// Quote providers
const (
	SourceAlphaVantage = "alpha_vantage"
	SourceYahoo        = "yahoo_finance"
)

// Overview is the subset of the OVERVIEW payload the application stores
type Overview struct {
	Symbol      string `json:"Symbol"`
	AssetType   string `json:"AssetType"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Exchange    string `json:"Exchange"`
	Currency    string `json:"Currency"`
	Country     string `json:"Country"`
	Sector      string `json:"Sector"`
	Industry    string `json:"Industry"`
}

// InstrumentType maps the overview asset type, "" when unknown
func (o *Overview) InstrumentType() string {
	return MapAssetType(o.AssetType)
}

type diagnostics struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (d diagnostics) message() string {
	switch {
	case d.Note != "":
		return d.Note
	case d.Information != "":
		return d.Information
	default:
		return d.ErrorMessage
	}
}

// Quote fetches the latest quote for symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var out *Quote
	err := c.withKeys(ctx, "GLOBAL_QUOTE", symbol, func(body []byte, diag string) error {
		var payload struct {
			GlobalQuote *Quote `json:"Global Quote"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode quote: %w", err)
		}
		if payload.GlobalQuote == nil || *payload.GlobalQuote == (Quote{}) {
			return noData(symbol, diag)
		}
		out = payload.GlobalQuote
		out.Source = SourceAlphaVantage
		return nil
	})
	return out, err
}

// Overview fetches company and asset information for symbol
func (c *Client) Overview(ctx context.Context, symbol string) (*Overview, error) {
	var out *Overview
	err := c.withKeys(ctx, "OVERVIEW", symbol, func(body []byte, diag string) error {
		var payload Overview
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode overview: %w", err)
		}
		if payload.Symbol == "" {
			return noData(symbol, diag)
		}
		out = &payload
		return nil
	})
	return out, err
}

func noData(symbol, diag string) error {
	if diag != "" {
		return fmt.Errorf("%w for %s: %s", ErrNoData, symbol, diag)
	}
	return fmt.Errorf("%w for %s", ErrNoData, symbol)
}

func (c *Client) limiterFor(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[key]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[key] = l
	}
	return l
}

// withKeys runs one request per key until one is not rate limited
func (c *Client) withKeys(ctx context.Context, function, symbol string, decode func([]byte, string) error) error {
	var lastLimit *RateLimitError
	for i, key := range c.keys {
		err := c.do(ctx, function, symbol, key, i+1, decode)
		var limited *RateLimitError
		if errors.As(err, &limited) {
			lastLimit = limited
			c.logger.Info("rate limited, trying next key",
				slog.String("function", function),
				slog.String("symbol", symbol),
				slog.Int("key", i+1))
			continue
		}
		return err
	}
	if lastLimit == nil {
		return ErrMissingAPIKey
	}
	return lastLimit
}

func (c *Client) do(ctx context.Context, function, symbol, key string, position int, decode func([]byte, string) error) error {
	if err := c.limiterFor(key).Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	c.logger.Debug("alpha vantage request",
		slog.String("function", function),
		slog.String("symbol", symbol),
		slog.Int("key", position))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", function, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %s", function, symbol, resp.Status)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", function, symbol, err)
	}

	var diag diagnostics
	// non-object payloads carry no diagnostics
	_ = json.Unmarshal(body, &diag)
	message := diag.message()
	if message != "" {
		c.logger.Debug("alpha vantage diagnostic", slog.String("symbol", symbol), slog.String("message", message))
	}
	if isRateLimit(message) {
		return &RateLimitError{Message: message}
	}
	return decode(body, message)
}
