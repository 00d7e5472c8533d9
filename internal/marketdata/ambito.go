package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultAmbitoBaseURL is the Ámbito markets API root
const DefaultAmbitoBaseURL = "https://mercados.ambito.com"

// Dollar quotations published by Ámbito
const (
	RateOfficial = "official"
	RateBlue     = "blue"
	RateMEP      = "mep"
)

var ambitoEndpoints = []struct {
	kind string
	path string
}{
	{RateOfficial, "/dolar/oficial/variacion"},
	{RateBlue, "/dolar/informal/variacion"},
	{RateMEP, "/dolarrava/mep/variacion"},
}

// ExchangeRates are ARS per USD selling rates
type ExchangeRates struct {
	Official decimal.Decimal
	Blue     decimal.Decimal
	MEP      decimal.Decimal

	// AsOf is the publication time Ámbito reports, as published
	AsOf string
}

// Ambito reads dollar rates from Ámbito
type Ambito struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewAmbito creates an Ámbito source with the default site and timeout
func NewAmbito() *Ambito {
	return &Ambito{
		BaseURL: DefaultAmbitoBaseURL,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Logger:  slog.Default(),
	}
}

type ambitoPayload struct {
	Venta  string `json:"venta"`
	Valor  string `json:"valor"`
	Ultimo string `json:"ultimo"`
	Fecha  string `json:"fecha"`
}

func (p ambitoPayload) rate() string {
	switch {
	case p.Venta != "":
		return p.Venta
	case p.Valor != "":
		return p.Valor
	default:
		return p.Ultimo
	}
}

// Rates fetches the official, blue and MEP rates. Any missing rate fails the
// whole call.
func (a *Ambito) Rates(ctx context.Context) (*ExchangeRates, error) {
	out := &ExchangeRates{}
	base := strings.TrimRight(a.BaseURL, "/")

	for _, ep := range ambitoEndpoints {
		body, err := fetchPage(ctx, a.HTTP, base+ep.path)
		if err != nil {
			return nil, fmt.Errorf("ambito %s rate: %w", ep.kind, err)
		}

		var p ambitoPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("ambito %s rate: decode: %w", ep.kind, err)
		}
		raw := p.rate()
		if raw == "" {
			return nil, fmt.Errorf("ambito %s rate: response has no rate", ep.kind)
		}
		value, err := ParseAmbitoDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("ambito %s rate: %w", ep.kind, err)
		}
		a.Logger.Debug("ambito rate", slog.String("kind", ep.kind), slog.String("rate", value.String()))

		switch ep.kind {
		case RateOfficial:
			out.Official = value
		case RateBlue:
			out.Blue = value
		case RateMEP:
			out.MEP = value
		}
		if out.AsOf == "" {
			out.AsOf = p.Fecha
		}
	}
	return out, nil
}

// ParseAmbitoDecimal parses Argentine formatted numbers: "1.234,50" is 1234.50
func ParseAmbitoDecimal(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid rate %q", s)
	}
	return d, nil
}
