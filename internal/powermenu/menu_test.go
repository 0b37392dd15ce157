package powermenu

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scienceol/sessionctl/internal/logging"
	"github.com/scienceol/sessionctl/internal/runner"
	"github.com/scienceol/sessionctl/internal/runner/runnertest"
	"github.com/scienceol/sessionctl/internal/sway"
	"github.com/scienceol/sessionctl/internal/ui"
)

const picker = "wofi --dmenu --prompt Power"

type fakePower struct {
	calls []string
	err   error
}

func (f *fakePower) Reboot() error   { f.calls = append(f.calls, "reboot"); return f.err }
func (f *fakePower) PowerOff() error { f.calls = append(f.calls, "poweroff"); return f.err }
func (f *fakePower) Suspend() error  { f.calls = append(f.calls, "suspend"); return f.err }

type testMenu struct {
	*Menu
	rec     *runnertest.Recorder
	locks   int
	stderr  *bytes.Buffer
	logText *bytes.Buffer
}

func newMenu(t *testing.T, selection runner.Result) *testMenu {
	t.Helper()
	rec := &runnertest.Recorder{Results: map[string]runner.Result{picker: selection}}
	tm := &testMenu{rec: rec, stderr: &bytes.Buffer{}, logText: &bytes.Buffer{}}
	tm.Menu = &Menu{
		Picker: runner.Cmd{Name: "wofi", Args: []string{"--dmenu", "--prompt", "Power"}},
		Runner: rec,
		System: &ExecSystem{Runner: rec, Session: sway.NewClient(rec, "")},
		Lock: func(context.Context) int {
			tm.locks++
			return 0
		},
		Log: logging.New(tm.logText),
		UI:  ui.New(tm.stderr),
	}
	return tm
}

func TestRun_FeedsLabelsInOrder(t *testing.T) {
	m := newMenu(t, runner.Result{})

	assert.Equal(t, 0, m.Run(context.Background()))

	calls := m.rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, picker, calls[0].Cmd.String())
	assert.Equal(t, "Lock\nReboot\nLogout\nShutdown\nSuspend\n", calls[0].Stdin)
}

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		selection string
		command   string
	}{
		{"Reboot\n", "systemctl reboot"},
		{"Shutdown\n", "systemctl poweroff"},
		{"Suspend", "systemctl suspend"},
		{"  Logout \n", "swaymsg exit"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			m := newMenu(t, runner.Result{Stdout: tt.selection})

			assert.Equal(t, 0, m.Run(context.Background()))
			assert.Equal(t, []string{picker, tt.command}, m.rec.Commands())
			assert.Zero(t, m.locks)
		})
	}
}

func TestRun_LockRunsPipelineOnly(t *testing.T) {
	m := newMenu(t, runner.Result{Stdout: "Lock\n"})

	assert.Equal(t, 0, m.Run(context.Background()))
	assert.Equal(t, 1, m.locks)
	assert.Equal(t, []string{picker}, m.rec.Commands())
}

func TestRun_NoAction(t *testing.T) {
	tests := map[string]runner.Result{
		"empty":     {},
		"unknown":   {Stdout: "Hibernate\n"},
		"case":      {Stdout: "reboot\n"},
		"cancelled": {ExitCode: 1, Stdout: "Reboot\n"},
	}

	for name, sel := range tests {
		t.Run(name, func(t *testing.T) {
			m := newMenu(t, sel)

			assert.Equal(t, 0, m.Run(context.Background()))
			assert.Equal(t, []string{picker}, m.rec.Commands())
			assert.Zero(t, m.locks)
			assert.Empty(t, m.stderr.String())
		})
	}
}

func TestRun_FailuresStillExitZero(t *testing.T) {
	m := newMenu(t, runner.Result{Stdout: "Reboot\n"})
	m.rec.Results["systemctl reboot"] = runner.Result{ExitCode: 1, Stderr: "Access denied"}

	assert.Equal(t, 0, m.Run(context.Background()))
	assert.Contains(t, m.stderr.String(), "Access denied")
	assert.Contains(t, m.logText.String(), "power menu action failed")

	m = newMenu(t, runner.Result{ExitCode: -1, Err: errors.New("wofi: not found")})
	assert.Equal(t, 0, m.Run(context.Background()))
	assert.Contains(t, m.stderr.String(), "wofi: not found")
}

func TestLogindSystem(t *testing.T) {
	m := newMenu(t, runner.Result{})
	power := &fakePower{}
	m.System = &LogindSystem{Power: power, Session: sway.NewClient(m.rec, "")}

	for _, choice := range []string{"Reboot", "Shutdown", "Suspend", "Logout"} {
		require.NoError(t, m.Dispatch(context.Background(), choice))
	}

	assert.Equal(t, []string{"reboot", "poweroff", "suspend"}, power.calls)
	assert.Equal(t, []string{"swaymsg exit"}, m.rec.Commands())
}
