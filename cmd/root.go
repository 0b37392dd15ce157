package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "sessionctl",
	Short: "Screen lock and power menu for sway",
	Long: `sessionctl locks a sway session and keeps display power in step with it.

While the screen locker runs, an idle watcher turns the outputs off after a
period of inactivity and back on when the user returns. Only one lock session
runs at a time; helpers left behind by a crashed session are cleaned up on the
next start.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.config/sessionctl/config.yaml)")
}

// ExitError makes the process exit with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
