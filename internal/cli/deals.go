package cli

import (
	"time"

	"github.com/spf13/cobra"

	"goldwatcher/internal/app"
)

var (
	dealsBaseline   float64
	dealsLimit      int
	dealsMaxPremium float64
	dealsTimeout    time.Duration
)

var dealsCmd = &cobra.Command{
	Use:   "deals",
	Short: "Synthesize and rank product deals against the bullion rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.DealsOptions{
			Baseline: dealsBaseline,
			Limit:    dealsLimit,
			Timeout:  dealsTimeout,
		}
		if cmd.Flags().Changed("max-premium") {
			opts.MaxPremium = &dealsMaxPremium
		}
		return getApp().Deals(cmd.Context(), opts)
	},
}

func init() {
	dealsCmd.Flags().Float64Var(&dealsBaseline, "baseline", 0, "Baseline INR/gram rate (default: fetch bullion rate)")
	dealsCmd.Flags().IntVar(&dealsLimit, "limit", 20, "Maximum deals to display")
	dealsCmd.Flags().Float64Var(&dealsMaxPremium, "max-premium", 0, "Drop deals above this premium percent (unset = no cap)")
	dealsCmd.Flags().DurationVar(&dealsTimeout, "timeout", time.Minute, "Fetch timeout when resolving the baseline")
}
