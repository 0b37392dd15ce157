package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scienceol/sessionctl/internal/config"
	"github.com/scienceol/sessionctl/internal/ui"
)

var version = "0.1.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of sessionctl and the files it uses",
	Run: func(cmd *cobra.Command, args []string) {
		p := ui.New(cmd.OutOrStdout())
		p.Banner(version)

		cfgPath := flagConfig
		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}
		p.KeyValue("Config", cfgPath)

		cfg, err := config.Load(flagConfig, config.Overrides{})
		if err != nil {
			p.Warn("%v", err)
			return
		}
		p.KeyValue("Log", cfg.Paths.LogFile)
		p.KeyValue("Lock file", cfg.Paths.LockFile)
		p.KeyValue("PID file", cfg.Paths.PIDFile)
		p.Separator()
	},
}
