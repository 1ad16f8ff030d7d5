package cli

import (
	"github.com/spf13/cobra"

	"thermweb-monitor/internal/app"
)

var (
	simulateCheck string
	simulateValue float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Feed a synthetic reading through one health check cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			Check: simulateCheck,
			Value: simulateValue,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateCheck, "check", "freezer", "Check to simulate: freezer, humidity, or depth")
	simulateCmd.Flags().Float64Var(&simulateValue, "value", 0, "Synthetic reading value")
}
