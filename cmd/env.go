package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scienceol/sessionctl/internal/config"
	"github.com/scienceol/sessionctl/internal/idle"
	"github.com/scienceol/sessionctl/internal/lockscreen"
	"github.com/scienceol/sessionctl/internal/logging"
	"github.com/scienceol/sessionctl/internal/logind"
	"github.com/scienceol/sessionctl/internal/reaper"
	"github.com/scienceol/sessionctl/internal/runner"
	"github.com/scienceol/sessionctl/internal/state"
	"github.com/scienceol/sessionctl/internal/sway"
	"github.com/scienceol/sessionctl/internal/ui"
)

// env is what every subcommand starts from.
type env struct {
	cfg *config.Config
	log *logging.File
	ui  *ui.Printer
}

func loadEnv(o config.Overrides) (*env, error) {
	cfg, err := config.Load(flagConfig, o)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	printer := ui.Stderr()
	log, err := logging.Open(cfg.Paths.LogFile)
	if err != nil {
		printer.Warn("%v, logging to stderr", err)
	}
	return &env{cfg: cfg, log: log, ui: printer}, nil
}

func (e *env) Close() {
	_ = e.log.Close()
}

func (e *env) logger() *slog.Logger {
	return e.log.Logger
}

func (e *env) sway() *sway.Client {
	return sway.NewClient(runner.Exec{}, e.cfg.Outputs.Command)
}

// newPipeline wires one lock session. The returned func releases what the
// pipeline opened and must be called after it ran.
func (e *env) newPipeline() (*lockscreen.Pipeline, func(), error) {
	self, err := os.Executable()
	if err != nil {
		return nil, nil, fmt.Errorf("locate sessionctl executable: %w", err)
	}

	cfgPath := flagConfig
	if cfgPath != "" {
		if cfgPath, err = filepath.Abs(cfgPath); err != nil {
			return nil, nil, fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg, log := e.cfg, e.logger()
	st := state.New(cfg.Paths.LockFile, cfg.Paths.PIDFile)
	p := &lockscreen.Pipeline{
		State:  st,
		Reaper: reaper.New(st, filepath.Base(cfg.Idle.Command)),
		Idle: &idle.Supervisor{
			Command:          cfg.Idle.Command,
			Timeout:          cfg.Idle.Timeout,
			Self:             self,
			Config:           cfgPath,
			LaunchCheckDelay: cfg.Idle.LaunchCheckDelay,
			State:            st,
			Log:              log,
		},
		Outputs: e.sway(),
		Locker: lockscreen.Locker{
			Command: cfg.Locker.Command,
			Config:  cfg.Locker.Config,
			Runner:  runner.Exec{},
		},
		Log: log,
	}

	release := func() {}
	if cfg.Logind.LockedHint {
		session, err := logind.NewSession(os.Getenv("XDG_SESSION_ID"))
		if err != nil {
			log.Warn("locked hint disabled", "error", err)
		} else {
			p.Hint = session
			release = func() { _ = session.Close() }
		}
	}
	return p, release, nil
}
