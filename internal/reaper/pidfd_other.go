//go:build !linux

package reaper

import (
	"context"

	"github.com/scienceol/sessionctl/internal/procfs"
)

func terminatePidfd(context.Context, procfs.FS, procfs.Stat) error {
	return errPidfdUnsupported
}
