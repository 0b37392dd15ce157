//go:build linux

package idle

import "syscall"

// Kernel sends SIGTERM to the watcher when sessionctl dies, so a crash
// leaves no orphan driving the displays.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
