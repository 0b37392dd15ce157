//go:build linux

package idle

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scienceol/sessionctl/internal/logging"
	"github.com/scienceol/sessionctl/internal/procfs"
	"github.com/scienceol/sessionctl/internal/state"
)

// fakeWatcher writes an executable script standing in for swayidle. It
// records its arguments, one per line, next to itself.
func fakeWatcher(t *testing.T, body string) (path, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "swayidle")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argsFile + "'\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, argsFile
}

func newSupervisor(t *testing.T, command string, log *bytes.Buffer) *Supervisor {
	t.Helper()
	dir := t.TempDir()
	return &Supervisor{
		Command: command,
		Timeout: 10 * time.Second,
		Self:    "/usr/local/bin/sessionctl",
		State:   state.New(filepath.Join(dir, "sway-lock.mutex"), filepath.Join(dir, "sway-lock-idle.pid")),
		Log:     logging.New(log),
	}
}

func TestArgs(t *testing.T) {
	s := &Supervisor{Timeout: 10 * time.Second, Self: "/opt/my tools/sessionctl"}

	assert.Equal(t, []string{
		"timeout", "10", "'/opt/my tools/sessionctl' dpms off --trigger timeout",
		"resume", "'/opt/my tools/sessionctl' dpms on --trigger resume",
	}, s.Args())
}

func TestArgs_PassesConfig(t *testing.T) {
	s := &Supervisor{Timeout: 90 * time.Second, Self: "/usr/bin/sessionctl", Config: "/home/u/my cfg.yaml"}

	assert.Equal(t, []string{
		"timeout", "90", "/usr/bin/sessionctl dpms off --trigger timeout --config '/home/u/my cfg.yaml'",
		"resume", "/usr/bin/sessionctl dpms on --trigger resume --config '/home/u/my cfg.yaml'",
	}, s.Args())
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/usr/bin/sessionctl", shellQuote("/usr/bin/sessionctl"))
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestStart_RecordsPIDAndStops(t *testing.T) {
	var log bytes.Buffer
	watcher, argsFile := fakeWatcher(t, "exec sleep 30")
	s := newSupervisor(t, watcher, &log)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	pid := s.PID()
	require.NotZero(t, pid)
	assert.True(t, s.Alive())

	recorded, err := s.State.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, pid, recorded)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(argsFile)
		return err == nil && strings.Count(string(data), "\n") == 5
	}, 2*time.Second, 10*time.Millisecond)
	data, _ := os.ReadFile(argsFile)
	assert.Equal(t, strings.Join(s.Args(), "\n")+"\n", string(data))

	require.NoError(t, s.Stop())
	assert.False(t, s.Alive())
	assert.False(t, procfs.FS{}.Alive(pid))
	require.NoError(t, s.Stop())

	assert.NotContains(t, log.String(), "exited right after launch")
}

func TestStart_Twice(t *testing.T) {
	var log bytes.Buffer
	watcher, _ := fakeWatcher(t, "exec sleep 30")
	s := newSupervisor(t, watcher, &log)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	pid := s.PID()

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, pid, s.PID())
}

func TestStart_LaunchAnomalyIsWarning(t *testing.T) {
	var log bytes.Buffer
	watcher, _ := fakeWatcher(t, "exit 1")
	s := newSupervisor(t, watcher, &log)
	s.LaunchCheckDelay = 2 * time.Second

	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.Alive())
	assert.Contains(t, log.String(), "level=WARN")
	assert.Contains(t, log.String(), "exited right after launch")
	assert.True(t, s.State.PIDFileExists())
	require.NoError(t, s.Stop())
}

func TestStart_MissingCommand(t *testing.T) {
	var log bytes.Buffer
	s := newSupervisor(t, "sessionctl-no-such-idle-watcher", &log)

	require.Error(t, s.Start(context.Background()))
	assert.Zero(t, s.PID())
	assert.False(t, s.Alive())
	assert.False(t, s.State.PIDFileExists())
	require.NoError(t, s.Stop())
}
