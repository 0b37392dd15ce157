// Package state owns the files that coordinate sessionctl instances: the
// advisory lock that admits a single lock launcher, and the PID file that
// names its idle-watcher child for crash recovery by the next instance.
package state

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("another instance is running")

// ErrNoPID is returned by ReadPID when the PID file is absent or empty.
var ErrNoPID = errors.New("no pid recorded")

// LockState is handed to every component that touches the shared files.
type LockState struct {
	LockPath string
	PIDPath  string

	lock *flock.Flock
}

func New(lockPath, pidPath string) *LockState {
	return &LockState{LockPath: lockPath, PIDPath: pidPath}
}

// Acquire takes the exclusive advisory lock without blocking. The lock lives
// as long as the process unless Release is called; the kernel drops it on
// any kind of exit.
func (s *LockState) Acquire() error {
	if s.lock != nil && s.lock.Locked() {
		return nil
	}

	fl := flock.New(s.LockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("try lock %s: %w", s.LockPath, err)
	}
	if !locked {
		return ErrLocked
	}
	s.lock = fl
	return nil
}

// Held reports whether this LockState holds the lock.
func (s *LockState) Held() bool {
	return s.lock != nil && s.lock.Locked()
}

// Release drops the lock. The lock file itself is left in place.
func (s *LockState) Release() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

// ReadPID parses the PID file. A missing or blank file yields ErrNoPID.
func (s *LockState) ReadPID() (int, error) {
	data, err := os.ReadFile(s.PIDPath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNoPID
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return 0, ErrNoPID
	}
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q in %s", raw, s.PIDPath)
	}
	return pid, nil
}

// PIDFileExists reports whether the PID file is present, empty or not.
func (s *LockState) PIDFileExists() bool {
	_, err := os.Stat(s.PIDPath)
	return err == nil
}

// WritePID replaces the PID file with pid in decimal.
func (s *LockState) WritePID(pid int) error {
	tmp := s.PIDPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if err := os.Rename(tmp, s.PIDPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// RemovePID deletes the PID file. An absent file is not an error.
func (s *LockState) RemovePID() error {
	err := os.Remove(s.PIDPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}
