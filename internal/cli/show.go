package cli

import (
	"time"

	"github.com/spf13/cobra"

	"goldwatcher/internal/app"
)

var showTimeout time.Duration

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch every tracked rate once and display the board",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Timeout: showTimeout,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().DurationVar(&showTimeout, "timeout", 2*time.Minute, "Overall fetch timeout")
}
