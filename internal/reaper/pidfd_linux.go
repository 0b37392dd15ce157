//go:build linux

package reaper

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/scienceol/sessionctl/internal/procfs"
)

// pollInterval bounds each poll(2) so cancellation of ctx is noticed.
const pollInterval = 250 // ms

func terminatePidfd(ctx context.Context, proc procfs.FS, st procfs.Stat) error {
	fd, err := unix.PidfdOpen(st.PID, 0)
	switch {
	case errors.Is(err, unix.ESRCH):
		return nil
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EPERM), errors.Is(err, unix.EINVAL):
		return errPidfdUnsupported
	case err != nil:
		return fmt.Errorf("pidfd_open %d: %w", st.PID, err)
	}
	defer unix.Close(fd)

	// The pidfd now refers to whatever holds the PID; make sure that is
	// still the process that was inspected.
	same, gone := sameProcess(proc, st)
	if gone {
		return nil
	}
	if !same {
		return errReused
	}

	if err := unix.PidfdSendSignal(fd, unix.SIGTERM, nil, 0); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("pidfd_send_signal %d: %w", st.PID, err)
	}

	return waitPidfd(ctx, fd, st.PID)
}

// waitPidfd blocks until the pidfd becomes readable, which happens when the
// process exits.
func waitPidfd(ctx context.Context, fd, pid int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for pid %d: %w", pid, err)
		}

		n, err := unix.Poll(fds, pollInterval)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll pidfd %d: %w", pid, err)
		}
		if n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			return nil
		}
	}
}
