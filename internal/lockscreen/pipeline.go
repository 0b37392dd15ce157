// Package lockscreen ties the single-instance guard, the stale watcher
// reaper, the idle watcher and the screen locker into one lock session.
package lockscreen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scienceol/sessionctl/internal/idle"
	"github.com/scienceol/sessionctl/internal/lifecycle"
	"github.com/scienceol/sessionctl/internal/reaper"
	"github.com/scienceol/sessionctl/internal/runner"
	"github.com/scienceol/sessionctl/internal/state"
)

// ExitNotStarted is returned when the locker could not be started at all.
const ExitNotStarted = 127

// Outputs switches display power.
type Outputs interface {
	SetOutputPower(ctx context.Context, on bool) error
}

// LockedHinter tells the session manager whether the screen is locked.
type LockedHinter interface {
	SetLockedHint(locked bool) error
}

// Locker is the foreground screen-lock program.
type Locker struct {
	Command string
	Config  string
	Runner  runner.Runner
}

func (l Locker) cmd() runner.Cmd {
	return runner.Cmd{Name: l.Command, Args: []string{"-C", l.Config}, Interactive: true}
}

// Pipeline is one lock session.
type Pipeline struct {
	State   *state.LockState
	Reaper  *reaper.Reaper
	Idle    *idle.Supervisor
	Outputs Outputs
	Locker  Locker
	// Hint is optional.
	Hint LockedHinter
	Log  *slog.Logger

	controller *lifecycle.Controller
}

// Run executes the session and returns the process exit status: 0 when
// another instance holds the lock, the locker's exit code otherwise, or
// 128+signo when interrupted.
func (p *Pipeline) Run(ctx context.Context) int {
	if err := p.State.Acquire(); err != nil {
		if errors.Is(err, state.ErrLocked) {
			p.Log.Info("another instance is running", "lock_file", p.State.LockPath)
		} else {
			p.Log.Warn("could not take instance lock", "lock_file", p.State.LockPath, "error", err)
		}
		return 0
	}
	defer p.State.Release()

	reaper.LogResults(p.Log, p.Reaper.Reap(ctx))

	p.controller = &lifecycle.Controller{Log: p.Log, Teardown: p.Teardown}
	return p.controller.Run(ctx, p.lock)
}

func (p *Pipeline) lock(ctx context.Context) int {
	if err := p.Idle.Start(ctx); err != nil {
		p.Log.Warn("idle watcher not started", "error", err)
	}

	p.hint(true)
	defer p.hint(false)

	c := p.Locker.cmd()
	p.Log.Info("starting locker", "command", c.String())
	res := p.Locker.Runner.Run(ctx, c)
	if res.ExitCode < 0 {
		p.Log.Error("locker did not start", "command", c.String(), "error", res.Err)
		return ExitNotStarted
	}
	p.Log.Info("locker exited", "status", res.ExitCode)
	return res.ExitCode
}

func (p *Pipeline) hint(locked bool) {
	if p.Hint == nil {
		return
	}
	if err := p.Hint.SetLockedHint(locked); err != nil {
		p.Log.Warn("could not set locked hint", "locked", locked, "error", err)
	}
}

// Teardown stops the idle watcher, removes the PID file and powers the
// outputs back on. Every step runs even when an earlier one fails, and
// running it again after success is harmless.
func (p *Pipeline) Teardown(ctx context.Context) error {
	var errs []error
	if p.Idle != nil {
		if err := p.Idle.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.State.RemovePID(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Outputs.SetOutputPower(ctx, true); err != nil {
		errs = append(errs, fmt.Errorf("power outputs on: %w", err))
	}
	return errors.Join(errs...)
}

// Trigger reports what ended the last run, if it got past the guard.
func (p *Pipeline) Trigger() (lifecycle.Trigger, bool) {
	if p.controller == nil {
		return "", false
	}
	return p.controller.Trigger()
}
