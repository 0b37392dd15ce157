package powermenu

import (
	"context"
	"fmt"

	"github.com/scienceol/sessionctl/internal/runner"
)

// Session ends the window-manager session.
type Session interface {
	Exit(ctx context.Context) error
}

// ExecSystem runs systemctl for power actions.
type ExecSystem struct {
	Runner    runner.Runner
	Systemctl string
	Session   Session
}

func (s *ExecSystem) systemctl(ctx context.Context, verb string) error {
	name := s.Systemctl
	if name == "" {
		name = "systemctl"
	}
	res := s.Runner.Run(ctx, runner.Cmd{Name: name, Args: []string{verb}})
	if err := res.Error(); err != nil {
		return fmt.Errorf("%s %s: %w", name, verb, err)
	}
	return nil
}

func (s *ExecSystem) Reboot(ctx context.Context) error   { return s.systemctl(ctx, "reboot") }
func (s *ExecSystem) PowerOff(ctx context.Context) error { return s.systemctl(ctx, "poweroff") }
func (s *ExecSystem) Suspend(ctx context.Context) error  { return s.systemctl(ctx, "suspend") }
func (s *ExecSystem) Logout(ctx context.Context) error   { return s.Session.Exit(ctx) }

// Power is the logind manager subset used for power actions.
type Power interface {
	Reboot() error
	PowerOff() error
	Suspend() error
}

// LogindSystem asks logind over D-Bus for power actions.
type LogindSystem struct {
	Power   Power
	Session Session
}

func (s *LogindSystem) Reboot(context.Context) error   { return s.Power.Reboot() }
func (s *LogindSystem) PowerOff(context.Context) error { return s.Power.PowerOff() }
func (s *LogindSystem) Suspend(context.Context) error  { return s.Power.Suspend() }
func (s *LogindSystem) Logout(ctx context.Context) error {
	return s.Session.Exit(ctx)
}
