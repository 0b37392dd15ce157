// Package procfs reads process identity from /proc.
package procfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CommLen is the kernel's TASK_COMM_LEN minus the trailing NUL.
const CommLen = 15

// ErrNotFound is returned when the process does not exist.
var ErrNotFound = errors.New("process not found")

// Stat is the subset of /proc/<pid>/stat sessionctl cares about.
type Stat struct {
	PID   int
	Comm  string
	State byte
	// StartTime is in clock ticks since boot and, together with PID,
	// identifies a process across PID reuse.
	StartTime uint64
}

// Dead reports zombie and dead states.
func (s Stat) Dead() bool {
	return s.State == 'Z' || s.State == 'X' || s.State == 'x'
}

// FS reads from a procfs mount. The zero value reads /proc.
type FS struct {
	Root string
}

func (fs FS) path(pid int, name string) string {
	root := fs.Root
	if root == "" {
		root = "/proc"
	}
	return filepath.Join(root, strconv.Itoa(pid), name)
}

// Stat parses /proc/<pid>/stat.
func (fs FS) Stat(pid int) (Stat, error) {
	data, err := os.ReadFile(fs.path(pid, "stat"))
	if errors.Is(err, os.ErrNotExist) {
		return Stat{}, ErrNotFound
	}
	if err != nil {
		return Stat{}, fmt.Errorf("read stat for pid %d: %w", pid, err)
	}
	return ParseStat(string(data))
}

// Alive reports whether pid names a process that has not exited. Zombies
// count as exited.
func (fs FS) Alive(pid int) bool {
	st, err := fs.Stat(pid)
	if err != nil {
		return false
	}
	return !st.Dead()
}

// Cmdline returns the NUL-separated argv of pid joined by spaces, or "" when
// it cannot be read (kernel threads, exited or foreign processes).
func (fs FS) Cmdline(pid int) string {
	data, err := os.ReadFile(fs.path(pid, "cmdline"))
	if err != nil {
		return ""
	}
	var parts []string
	for _, p := range strings.Split(string(data), "\x00") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ParseStat parses the content of a stat file. The comm field may contain
// spaces and parentheses, so it is delimited by the last ')'.
func ParseStat(s string) (Stat, error) {
	open := strings.IndexByte(s, '(')
	closing := strings.LastIndexByte(s, ')')
	if open < 0 || closing < open || closing+2 >= len(s) {
		return Stat{}, fmt.Errorf("malformed stat line %q", s)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(s[:open]))
	if err != nil {
		return Stat{}, fmt.Errorf("malformed pid in stat: %w", err)
	}

	// fields after comm start at field 3 (state)
	rest := strings.Fields(s[closing+2:])
	const startTimeIdx = 22 - 3
	if len(rest) <= startTimeIdx {
		return Stat{}, fmt.Errorf("short stat line for pid %d", pid)
	}
	start, err := strconv.ParseUint(rest[startTimeIdx], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("malformed starttime for pid %d: %w", pid, err)
	}

	return Stat{
		PID:       pid,
		Comm:      s[open+1 : closing],
		State:     rest[0][0],
		StartTime: start,
	}, nil
}

// MatchComm compares a comm value against a program name the way the kernel
// truncates it. Only the base name of name is considered.
func MatchComm(comm, name string) bool {
	name = filepath.Base(name)
	if len(name) > CommLen {
		name = name[:CommLen]
	}
	return comm == name
}
