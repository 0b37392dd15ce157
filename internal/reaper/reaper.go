// Package reaper reconciles the idle-watcher PID file left behind by an
// earlier sessionctl instance.
//
// Reaping is best-effort: every step reports a Result instead of failing,
// and the caller logs them together with LogResults.
package reaper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/scienceol/sessionctl/internal/procfs"
	"github.com/scienceol/sessionctl/internal/state"
)

// Action names what a reaping step did.
type Action string

const (
	ActionNoPIDFile      Action = "no-pid-file"
	ActionDiscardedEmpty Action = "discarded-empty"
	ActionDiscardedBad   Action = "discarded-invalid"
	ActionDiscardedDead  Action = "discarded-dead"
	ActionSparedForeign  Action = "spared-foreign"
	ActionTerminated     Action = "terminated"
	ActionTerminateError Action = "terminate-failed"
	ActionRemoved        Action = "removed-pid-file"
	ActionRemoveError    Action = "remove-failed"
)

// errReused is reported when the PID changed identity between inspection and signalling.
var errReused = errors.New("pid was reused by another process")

// Result is the outcome of one reaping step.
type Result struct {
	Action Action
	PID    int
	// Comm is the command name found at PID, when one was read.
	Comm string
	Err  error
}

// Reaper terminates a stale idle watcher recorded in the PID file.
type Reaper struct {
	State *state.LockState
	// Name is the idle-watcher program; only a process with this command
	// name is ever signalled.
	Name string
	Proc procfs.FS
}

func New(s *state.LockState, name string) *Reaper {
	return &Reaper{State: s, Name: name}
}

// Reap inspects the PID file, terminates a live idle watcher it names and
// waits for it to exit, then removes the file. It never touches a process
// whose command name differs from Name. Waiting is bounded only by ctx.
func (r *Reaper) Reap(ctx context.Context) []Result {
	if !r.State.PIDFileExists() {
		return []Result{{Action: ActionNoPIDFile}}
	}

	var results []Result
	pid, err := r.State.ReadPID()
	switch {
	case errors.Is(err, state.ErrNoPID):
		results = append(results, Result{Action: ActionDiscardedEmpty})
	case err != nil:
		results = append(results, Result{Action: ActionDiscardedBad, Err: err})
	default:
		results = append(results, r.reapPID(ctx, pid))
	}

	if err := r.State.RemovePID(); err != nil {
		return append(results, Result{Action: ActionRemoveError, PID: pid, Err: err})
	}
	return append(results, Result{Action: ActionRemoved, PID: pid})
}

func (r *Reaper) reapPID(ctx context.Context, pid int) Result {
	st, err := r.Proc.Stat(pid)
	if err != nil || st.Dead() {
		return Result{Action: ActionDiscardedDead, PID: pid}
	}
	if !procfs.MatchComm(st.Comm, r.Name) {
		return Result{Action: ActionSparedForeign, PID: pid, Comm: st.Comm}
	}

	if err := r.terminate(ctx, st); err != nil {
		return Result{Action: ActionTerminateError, PID: pid, Comm: st.Comm, Err: err}
	}
	return Result{Action: ActionTerminated, PID: pid, Comm: st.Comm}
}

// terminate prefers a pidfd, which pins the process identity for the whole
// signal-and-wait sequence, and falls back to kill(2) with polling.
func (r *Reaper) terminate(ctx context.Context, st procfs.Stat) error {
	err := terminatePidfd(ctx, r.Proc, st)
	if errors.Is(err, errPidfdUnsupported) {
		return terminateKill(ctx, r.Proc, st)
	}
	return err
}

// sameProcess re-reads pid and reports whether it is still the process
// described by st. gone is true when it has exited meanwhile.
func sameProcess(proc procfs.FS, st procfs.Stat) (same, gone bool) {
	cur, err := proc.Stat(st.PID)
	if err != nil || cur.Dead() {
		return false, true
	}
	return cur.StartTime == st.StartTime, false
}

// LogResults writes one line per step to log.
func LogResults(log *slog.Logger, results []Result) {
	for _, res := range results {
		attrs := []any{"action", string(res.Action)}
		if res.PID != 0 {
			attrs = append(attrs, "pid", res.PID)
		}
		if res.Comm != "" {
			attrs = append(attrs, "comm", res.Comm)
		}
		if res.Err != nil {
			log.Warn("stale idle watcher cleanup", append(attrs, "error", res.Err)...)
			continue
		}
		log.Info("stale idle watcher cleanup", attrs...)
	}
}
