package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scienceol/sessionctl/internal/config"
	"github.com/scienceol/sessionctl/internal/procfs"
	"github.com/scienceol/sessionctl/internal/snapshot"
)

var flagStateFile string

func init() {
	sessionCmd.PersistentFlags().StringVar(&flagStateFile, "file", "", "Session state file (default: ~/.cache/sway-session.json)")
	sessionCmd.AddCommand(sessionSaveCmd, sessionRestoreCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Save or restore the sway workspace layout",
}

func newSnapshot() (*env, *snapshot.Manager, error) {
	e, err := loadEnv(config.Overrides{StateFile: flagStateFile})
	if err != nil {
		return nil, nil, err
	}
	return e, &snapshot.Manager{
		IPC:    e.sway(),
		Proc:   procfs.FS{},
		Notify: e.ui.Info,
	}, nil
}

var sessionSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save workspaces and window commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, m, err := newSnapshot()
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := m.Save(cmd.Context(), e.cfg.Session.StateFile)
		if err != nil {
			e.logger().Warn("session save failed", "file", e.cfg.Session.StateFile, "error", err)
			return err
		}
		e.logger().Info("session saved", "file", e.cfg.Session.StateFile,
			"workspaces", len(st.Workspaces), "windows", len(st.Windows))
		e.ui.Success("Saved session to %s (%d workspaces, %d windows)",
			e.cfg.Session.StateFile, len(st.Workspaces), len(st.Windows))
		return nil
	},
}

var sessionRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Recreate saved workspaces and relaunch their windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, m, err := newSnapshot()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := m.Restore(cmd.Context(), e.cfg.Session.StateFile); err != nil {
			e.logger().Warn("session restore incomplete", "file", e.cfg.Session.StateFile, "error", err)
			return err
		}
		e.logger().Info("session restored", "file", e.cfg.Session.StateFile)
		e.ui.Success("Restored session from %s", e.cfg.Session.StateFile)
		return nil
	},
}
