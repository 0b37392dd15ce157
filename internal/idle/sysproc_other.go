//go:build !linux

package idle

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
