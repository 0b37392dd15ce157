package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/scienceol/sessionctl/internal/config"
)

var (
	flagIdleTimeout  time.Duration
	flagLockerConfig string
)

func init() {
	lockCmd.Flags().DurationVar(&flagIdleTimeout, "timeout", 0, "Idle time before the outputs are powered off (default 10s)")
	lockCmd.Flags().StringVar(&flagLockerConfig, "locker-config", "", "Screen locker config file (default: ~/.config/swaylock/config)")
	rootCmd.AddCommand(lockCmd)
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the screen",
	Long: `Runs the screen locker in the foreground and exits with its status.

If another lock session is already running this exits 0 at once. Otherwise
an idle watcher left behind by an earlier session is stopped, a new one is
started for this session, and on exit (including SIGINT and SIGTERM) the
watcher is stopped and the outputs are powered back on.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(config.Overrides{
			IdleTimeout: flagIdleTimeout,
			LockerCfg:   flagLockerConfig,
		})
		if err != nil {
			return err
		}
		defer e.Close()

		p, release, err := e.newPipeline()
		if err != nil {
			return err
		}
		defer release()

		if status := p.Run(cmd.Context()); status != 0 {
			return &ExitError{Code: status}
		}
		return nil
	},
}
