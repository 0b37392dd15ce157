package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scienceol/sessionctl/internal/config"
)

var flagTrigger string

func init() {
	dpmsCmd.Flags().StringVar(&flagTrigger, "trigger", "manual", "Name of the idle trigger that ran this command")
	rootCmd.AddCommand(dpmsCmd)
}

var dpmsCmd = &cobra.Command{
	Use:       "dpms on|off",
	Short:     "Power all outputs on or off",
	Long:      `Logs the call and sets the power state of every output. The idle watcher started by "lock" runs this on timeout and resume.`,
	ValidArgs: []string{"on", "off"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		on := args[0] == "on"

		e, err := loadEnv(config.Overrides{})
		if err != nil {
			return err
		}
		defer e.Close()

		e.logger().Info("idle trigger fired", "trigger", flagTrigger, "power", args[0])
		if err := e.sway().SetOutputPower(cmd.Context(), on); err != nil {
			e.logger().Warn("output power change failed", "power", args[0], "error", err)
			return fmt.Errorf("dpms %s: %w", args[0], err)
		}
		return nil
	},
}
