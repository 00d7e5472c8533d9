package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/appenv"
	"github.com/mustang-stock/mustangctl/internal/marketdata"
)

var (
	quoteOverview     bool
	quoteAPIKey       string
	quoteBaseURL      string
	quoteYahooSymbols []string
	quoteYahooBaseURL string
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Fetch a quote from Alpha Vantage, falling back to Yahoo Finance",
	Long: `Fetch a GLOBAL_QUOTE (or with --overview the company OVERVIEW) for SYMBOL
using ALPHAVANTAGE_API_KEY, falling back to ALPHAVANTAGE_SECONDARY_API_KEY when
the first key is rate limited. When Alpha Vantage has no data or every key is
rate limited the quote is read from Yahoo Finance instead; --yahoo-symbol
lists the Yahoo tickers to try (GGAL.BA for a Buenos Aires listing).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))

		keys, err := marketdata.Keys(quoteAPIKey, os.Getenv(appenv.AlphaVantageKey), os.Getenv(appenv.AlphaVantageKey2))
		if err != nil {
			return err
		}
		client, err := marketdata.NewClient(keys,
			marketdata.WithBaseURL(quoteBaseURL),
			marketdata.WithLogger(slog.Default()))
		if err != nil {
			return err
		}

		if quoteOverview {
			o, err := client.Overview(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			color.Cyan("%s  %s", o.Symbol, o.Name)
			color.New().Printf("  Type:     %s (%s)\n", o.AssetType, valueOr(o.InstrumentType(), "unmapped"))
			color.New().Printf("  Exchange: %s\n", o.Exchange)
			color.New().Printf("  Currency: %s\n", o.Currency)
			color.New().Printf("  Country:  %s\n", o.Country)
			color.New().Printf("  Sector:   %s\n", o.Sector)
			return nil
		}

		yahoo := marketdata.NewYahoo(quoteYahooSymbols...)
		yahoo.BaseURL = quoteYahooBaseURL
		source := &marketdata.Fallback{Primary: client, Secondary: yahoo, Logger: slog.Default()}

		q, err := source.Quote(cmd.Context(), symbol)
		if err != nil {
			return err
		}
		color.Cyan("%s  %s", q.Symbol, q.Price)
		color.New().Printf("  Source:    %s\n", q.Source)
		color.New().Printf("  Change:    %s (%s)\n", q.Change, q.ChangePercent)
		color.New().Printf("  Open/High/Low: %s / %s / %s\n", q.Open, q.High, q.Low)
		color.New().Printf("  Volume:    %s\n", q.Volume)
		color.New().Printf("  As of:     %s\n", q.LatestTradingDay)
		return nil
	},
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	quoteCmd.Flags().BoolVar(&quoteOverview, "overview", false, "Fetch the company overview instead of the quote")
	quoteCmd.Flags().StringVar(&quoteAPIKey, "api-key", "", "Use this key instead of the configured ones")
	quoteCmd.Flags().StringVar(&quoteBaseURL, "base-url", marketdata.DefaultBaseURL, "Alpha Vantage API root")
	quoteCmd.Flags().StringSliceVar(&quoteYahooSymbols, "yahoo-symbol", nil, "Yahoo Finance tickers to try when falling back (default SYMBOL)")
	quoteCmd.Flags().StringVar(&quoteYahooBaseURL, "yahoo-base-url", marketdata.DefaultYahooBaseURL, "Yahoo Finance site root")
	_ = quoteCmd.Flags().MarkHidden("base-url")
	_ = quoteCmd.Flags().MarkHidden("yahoo-base-url")
}
