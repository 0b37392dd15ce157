package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scienceol/sessionctl/internal/config"
	"github.com/scienceol/sessionctl/internal/logind"
	"github.com/scienceol/sessionctl/internal/powermenu"
	"github.com/scienceol/sessionctl/internal/runner"
)

var flagBackend string

func init() {
	menuCmd.Flags().StringVar(&flagBackend, "backend", "", "Power backend: exec (systemctl) or logind (D-Bus)")
	rootCmd.AddCommand(menuCmd)
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show the power menu",
	Long: `Shows Lock, Reboot, Logout, Shutdown and Suspend in the menu picker and
runs the selected action. Cancelling the picker does nothing. This command
always exits 0; failed actions are logged and reported on stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(config.Overrides{Backend: flagBackend})
		if err != nil {
			return err
		}
		defer e.Close()

		sw := e.sway()
		r := runner.Exec{}
		var system powermenu.System = &powermenu.ExecSystem{Runner: r, Session: sw}
		if e.cfg.Power.Backend == config.BackendLogind {
			power, err := logind.NewPower()
			if err != nil {
				e.logger().Warn("logind unavailable, using systemctl", "error", err)
			} else {
				defer power.Close()
				system = &powermenu.LogindSystem{Power: power, Session: sw}
			}
		}

		m := &powermenu.Menu{
			Picker: runner.Cmd{Name: e.cfg.Menu.Command, Args: e.cfg.Menu.Args},
			Runner: r,
			System: system,
			Lock: func(ctx context.Context) int {
				p, release, err := e.newPipeline()
				if err != nil {
					e.logger().Error("lock session not started", "error", err)
					return 1
				}
				defer release()
				return p.Run(ctx)
			},
			Log: e.logger(),
			UI:  e.ui,
		}
		m.Run(cmd.Context())
		return nil
	},
}
