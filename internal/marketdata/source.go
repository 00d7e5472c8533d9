package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// QuoteSource returns the latest quote for a symbol
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// Fallback asks Secondary when Primary has no data or every key is rate
// limited. Any other Primary failure is returned as is.
type Fallback struct {
	Primary   QuoteSource
	Secondary QuoteSource
	Logger    *slog.Logger
}

// Quote implements QuoteSource
func (f *Fallback) Quote(ctx context.Context, symbol string) (*Quote, error) {
	q, err := f.Primary.Quote(ctx, symbol)
	if err == nil || !shouldFallBack(err) || f.Secondary == nil {
		return q, err
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("primary quote source failed, using fallback",
		slog.String("symbol", symbol),
		slog.String("error", err.Error()))

	q, fbErr := f.Secondary.Quote(ctx, symbol)
	if fbErr != nil {
		return nil, fmt.Errorf("%w (primary: %v)", fbErr, err)
	}
	return q, nil
}

func shouldFallBack(err error) bool {
	var limited *RateLimitError
	return errors.Is(err, ErrNoData) || errors.As(err, &limited)
}
