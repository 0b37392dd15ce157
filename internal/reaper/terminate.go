package reaper

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/scienceol/sessionctl/internal/procfs"
)

var errPidfdUnsupported = errors.New("pidfd not supported")

// terminateKill signals with kill(2) and polls until the process is gone.
// The start-time check narrows, but cannot close, the PID-reuse window.
func terminateKill(ctx context.Context, proc procfs.FS, st procfs.Stat) error {
	same, gone := sameProcess(proc, st)
	if gone {
		return nil
	}
	if !same {
		return errReused
	}

	if err := unix.Kill(st.PID, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("signal pid %d: %w", st.PID, err)
	}

	var b backoff
	for {
		if same, gone := sameProcess(proc, st); gone || !same {
			return nil
		}
		if !b.Wait(ctx) {
			return fmt.Errorf("waiting for pid %d: %w", st.PID, ctx.Err())
		}
	}
}
