package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

const maxOutputBytes = 1 << 20 // 1 MB

// Cmd describes one external command.
type Cmd struct {
	Name string
	Args []string
	// Stdin is fed to the command when set.
	Stdin io.Reader
	// Interactive commands inherit the terminal and their output is not captured.
	Interactive bool
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of a finished command. Err is set when the command
// could not be started or was cut short by the context; a non-zero exit by
// itself is reported through ExitCode only.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Failed reports whether the command did not start or exited non-zero.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Error returns a descriptive error for a failed result, nil otherwise.
func (r Result) Error() error {
	if r.Err != nil {
		return r.Err
	}
	if r.ExitCode != 0 {
		msg := strings.TrimSpace(r.Stderr)
		if msg == "" {
			return fmt.Errorf("exit status %d", r.ExitCode)
		}
		return fmt.Errorf("exit status %d: %s", r.ExitCode, msg)
	}
	return nil
}

// Runner executes external commands and blocks until they finish.
type Runner interface {
	Run(ctx context.Context, c Cmd) Result
}

// Exec runs commands with os/exec. Cancelling the context sends SIGTERM to
// the command and waits for it to exit.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Cmd) Result {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &limitedWriter{w: &stdout, limit: maxOutputBytes}
		cmd.Stderr = &limitedWriter{w: &stderr, limit: maxOutputBytes}
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}

	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1}
	if ps := cmd.ProcessState; ps != nil {
		res.ExitCode = ps.ExitCode()
		// shell convention for signal deaths
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.ExitCode = 128 + int(ws.Signal())
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && res.ExitCode != 0 {
		res.Err = fmt.Errorf("%s: %w", c.Name, ctxErr)
		return res
	}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res
	}

	// not started
	res.Err = fmt.Errorf("%s: %w", c.Name, err)
	return res
}

// limitedWriter wraps a buffer and stops writing after limit bytes.
type limitedWriter struct {
	w       *bytes.Buffer
	limit   int
	written int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	remaining := lw.limit - lw.written
	if remaining <= 0 {
		return len(p), nil // Discard silently
	}
	n := len(p)
	if n > remaining {
		p = p[:remaining]
	}
	m, err := lw.w.Write(p)
	lw.written += m
	if err != nil {
		return m, err
	}
	return n, nil
}
