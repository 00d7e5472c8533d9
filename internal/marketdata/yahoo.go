package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultYahooBaseURL is the Yahoo Finance site root
const DefaultYahooBaseURL = "https://finance.yahoo.com"

var yahooPageData = regexp.MustCompile(`(?s)root\.App\.main\s*=\s*(\{.*?\});\s*window\.YAHOO`)

// Yahoo reads quotes from the Yahoo Finance quote page
type Yahoo struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger

	// Symbols, when set, are tried in order instead of the requested symbol.
	// Listings outside the US need their exchange suffix (GGAL.BA).
	Symbols []string
}

// NewYahoo creates a Yahoo source with the default site and timeout
func NewYahoo(symbols ...string) *Yahoo {
	return &Yahoo{
		BaseURL: DefaultYahooBaseURL,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Logger:  slog.Default(),
		Symbols: symbols,
	}
}

// Quote returns the quote of the first candidate symbol with a market price
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*Quote, error) {
	candidates := y.Symbols
	if len(candidates) == 0 {
		candidates = []string{symbol}
	}

	var lastErr error
	for _, candidate := range candidates {
		q, err := y.quote(ctx, candidate)
		if err == nil {
			return q, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		y.Logger.Info("yahoo finance scrape failed", slog.String("symbol", candidate), slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("yahoo finance %s: %w", strings.Join(candidates, ", "), lastErr)
}

func (y *Yahoo) quote(ctx context.Context, symbol string) (*Quote, error) {
	page, err := fetchPage(ctx, y.HTTP, strings.TrimRight(y.BaseURL, "/")+"/quote/"+url.PathEscape(symbol)+"/")
	if err != nil {
		return nil, err
	}

	match := yahooPageData.FindSubmatch(page)
	if match == nil {
		return nil, errors.New("page structure not recognized")
	}

	var data struct {
		Context struct {
			Dispatcher struct {
				Stores struct {
					QuoteSummaryStore struct {
						Price map[string]json.RawMessage `json:"price"`
					} `json:"QuoteSummaryStore"`
				} `json:"stores"`
			} `json:"dispatcher"`
		} `json:"context"`
	}
	if err := json.Unmarshal(match[1], &data); err != nil {
		return nil, fmt.Errorf("decode page data: %w", err)
	}

	price := data.Context.Dispatcher.Stores.QuoteSummaryStore.Price
	q := &Quote{
		Symbol:        symbol,
		Open:          rawField(price, "regularMarketOpen"),
		High:          rawField(price, "regularMarketDayHigh"),
		Low:           rawField(price, "regularMarketDayLow"),
		Price:         rawField(price, "regularMarketPrice"),
		Volume:        rawField(price, "regularMarketVolume"),
		PreviousClose: rawField(price, "regularMarketPreviousClose"),
		Change:        rawField(price, "regularMarketChange"),
		ChangePercent: rawField(price, "regularMarketChangePercent"),
		Source:        SourceYahoo,
	}
	if q.Price == "" || q.Price == "0" {
		return nil, noData(symbol, "")
	}
	if secs, err := strconv.ParseFloat(rawField(price, "regularMarketTime"), 64); err == nil && secs > 0 {
		q.LatestTradingDay = time.Unix(int64(secs), 0).UTC().Format(time.DateOnly)
	}
	return q, nil
}

// rawField returns a price field as text. Yahoo wraps most numbers as
// {"raw": 1.5, "fmt": "1.50"}.
func rawField(fields map[string]json.RawMessage, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}

	var wrapped struct {
		Raw json.RawMessage `json:"raw"`
	}
	if json.Unmarshal(v, &wrapped) == nil && len(wrapped.Raw) > 0 {
		v = wrapped.Raw
	}

	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	if text := string(v); text != "null" && !strings.HasPrefix(text, "{") {
		return text
	}
	return ""
}
