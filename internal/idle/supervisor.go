package idle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/scienceol/sessionctl/internal/state"
)

// Supervisor owns the idle-watcher child of one lock session. The child is
// started with two triggers: after Timeout of inactivity it runs
// "<Self> dpms off", and on the next user activity "<Self> dpms on".
type Supervisor struct {
	Command string
	Timeout time.Duration
	// Self is the sessionctl executable the triggers call back into.
	Self string
	// Config, when set, is passed to the triggers as --config.
	Config string
	// LaunchCheckDelay is how long to let the child settle before checking
	// that it is still alive. Zero checks immediately.
	LaunchCheckDelay time.Duration
	State            *state.LockState
	Log              *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Args returns the idle-watcher command line arguments.
func (s *Supervisor) Args() []string {
	secs := int(s.Timeout / time.Second)
	return []string{
		"timeout", strconv.Itoa(secs), s.trigger("off", "timeout"),
		"resume", s.trigger("on", "resume"),
	}
}

func (s *Supervisor) trigger(power, name string) string {
	cmd := fmt.Sprintf("%s dpms %s --trigger %s", shellQuote(s.Self), power, name)
	if s.Config != "" {
		cmd += " --config " + shellQuote(s.Config)
	}
	return cmd
}

// Start spawns the idle watcher in the background and records its PID.
// A child that dies right after launch is logged, not returned as an error;
// only a failure to start at all is.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cmd != nil {
		s.mu.Unlock()
		return nil // already running
	}

	path, err := exec.LookPath(s.Command)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s not found: %w", s.Command, err)
	}

	cmd := exec.Command(path, s.Args()...)
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start %s: %w", s.Command, err)
	}

	done := make(chan struct{})
	s.cmd = cmd
	s.done = done
	s.mu.Unlock()

	// Reap the child in background so it doesn't become a zombie.
	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(done)
	}()

	pid := cmd.Process.Pid
	s.Log.Info("idle watcher started", "child", pid, "command", s.Command, "timeout", s.Timeout.String())

	if err := s.State.WritePID(pid); err != nil {
		s.Log.Warn("could not record idle watcher pid", "child", pid, "error", err)
	}

	if s.LaunchCheckDelay > 0 {
		t := time.NewTimer(s.LaunchCheckDelay)
		select {
		case <-t.C:
		case <-done:
			t.Stop()
		case <-ctx.Done():
			t.Stop()
		}
	}
	if !s.Alive() {
		s.Log.Warn("idle watcher exited right after launch", "child", pid, "error", s.exitErr())
	}
	return nil
}

// PID returns the child's PID, or 0 when none was started.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Alive reports without blocking whether the child is still running.
func (s *Supervisor) Alive() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Done is closed once the child has exited and been reaped. It is nil
// before Start.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Supervisor) exitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

// Stop terminates the child and waits for it to be reaped. Safe to call
// multiple times and when the child is already gone.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	err := cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal idle watcher %d: %w", cmd.Process.Pid, err)
	}
	<-done
	return nil
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '-' || r == '_' || r == '.' ||
			r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
