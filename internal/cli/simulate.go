package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"bond-lifecycle-demo/internal/app"
)

var (
	simulatePrice float64
	simulatePause time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the lifecycle against an in-process engine stub",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice <= 0 {
			return errors.New("--price must be greater than zero")
		}

		opts := app.SimulateOptions{
			Price: simulatePrice,
			Pause: simulatePause,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 150, "Simulated share price for the observation step")
	simulateCmd.Flags().DurationVar(&simulatePause, "pause", time.Second, "Pause between steps")
}
