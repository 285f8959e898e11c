//go:build !linux && !darwin && !windows

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseOptions falls back to SO_REUSEADDR only, the same degradation
// the Windows build uses, for unix-like platforms without a dedicated
// file in this package.
func setReuseOptions(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) { sockErr = setReuseOptions(fd) }); err != nil {
		return err
	}
	return sockErr
}
