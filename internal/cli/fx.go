package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mustang-stock/mustangctl/internal/marketdata"
)

var fxBaseURL string

var fxCmd = &cobra.Command{
	Use:   "fx",
	Short: "Show the official, blue and MEP dollar rates from Ámbito",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ambito := marketdata.NewAmbito()
		ambito.BaseURL = fxBaseURL

		rates, err := ambito.Rates(cmd.Context())
		if err != nil {
			return err
		}
		color.Cyan("ARS per USD")
		color.New().Printf("  Official: %s\n", rates.Official.StringFixed(2))
		color.New().Printf("  Blue:     %s\n", rates.Blue.StringFixed(2))
		color.New().Printf("  MEP:      %s\n", rates.MEP.StringFixed(2))
		if rates.AsOf != "" {
			color.New().Printf("  As of:    %s\n", rates.AsOf)
		}
		return nil
	},
}

func init() {
	fxCmd.Flags().StringVar(&fxBaseURL, "base-url", marketdata.DefaultAmbitoBaseURL, "Ámbito API root")
	_ = fxCmd.Flags().MarkHidden("base-url")
}
