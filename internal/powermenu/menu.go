// Package powermenu shows the session actions in a menu picker and carries
// out the one the user selects.
package powermenu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scienceol/sessionctl/internal/runner"
	"github.com/scienceol/sessionctl/internal/ui"
)

// Label is a menu entry.
type Label string

const (
	Lock     Label = "Lock"
	Reboot   Label = "Reboot"
	Logout   Label = "Logout"
	Shutdown Label = "Shutdown"
	Suspend  Label = "Suspend"
)

// Labels is the menu in display order.
var Labels = []Label{Lock, Reboot, Logout, Shutdown, Suspend}

// System performs the session and power actions.
type System interface {
	Reboot(ctx context.Context) error
	PowerOff(ctx context.Context) error
	Suspend(ctx context.Context) error
	Logout(ctx context.Context) error
}

// Menu runs the picker and dispatches the selection.
type Menu struct {
	Picker runner.Cmd
	Runner runner.Runner
	System System
	// Lock runs the lock session in-process and returns its exit status.
	Lock func(ctx context.Context) int
	Log  *slog.Logger
	UI   *ui.Printer
}

func input() string {
	var b strings.Builder
	for _, l := range Labels {
		b.WriteString(string(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// Select runs the picker and returns the trimmed selection. A cancelled
// picker yields an empty selection.
func (m *Menu) Select(ctx context.Context) (string, error) {
	c := m.Picker
	c.Stdin = strings.NewReader(input())
	res := m.Runner.Run(ctx, c)
	if res.Err != nil {
		return "", fmt.Errorf("run menu picker: %w", res.Err)
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Run shows the menu and performs the chosen action. It always returns 0;
// failures are logged and reported on the terminal.
func (m *Menu) Run(ctx context.Context) int {
	choice, err := m.Select(ctx)
	if err != nil {
		m.Log.Warn("menu picker failed", "command", m.Picker.String(), "error", err)
		m.UI.Error("%v", err)
		return 0
	}
	if err := m.Dispatch(ctx, choice); err != nil {
		m.Log.Warn("power menu action failed", "selection", choice, "error", err)
		m.UI.Error("%s: %v", choice, err)
	}
	return 0
}

// Dispatch performs the action for an exact label match. Anything else,
// including an empty selection, does nothing.
func (m *Menu) Dispatch(ctx context.Context, choice string) error {
	actions := map[Label]func(context.Context) error{
		Lock: func(ctx context.Context) error {
			m.Log.Info("lock session ended", "status", m.Lock(ctx))
			return nil
		},
		Reboot:   m.System.Reboot,
		Shutdown: m.System.PowerOff,
		Suspend:  m.System.Suspend,
		Logout:   m.System.Logout,
	}

	action, ok := actions[Label(choice)]
	if !ok {
		if choice != "" {
			m.Log.Info("power menu selection ignored", "selection", choice)
		}
		return nil
	}
	m.Log.Info("power menu selection", "selection", choice)
	return action(ctx)
}
