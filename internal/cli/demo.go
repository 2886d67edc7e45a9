package cli

import (
	"time"

	"github.com/spf13/cobra"

	"bond-lifecycle-demo/internal/app"
)

var (
	demoPause time.Duration
	demoSteps []string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the scripted bond lifecycle against the engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.DemoOptions{
			Pause: demoPause,
			Steps: demoSteps,
		}
		return getApp().Demo(cmd.Context(), opts)
	},
}

func init() {
	demoCmd.Flags().DurationVar(&demoPause, "pause", 0, "Pause between steps (defaults to demo.step_pause)")
	demoCmd.Flags().StringSliceVar(&demoSteps, "steps", nil, "Subset of steps to run (issue,accrue,pay_coupon,observe_price,convert)")
}
