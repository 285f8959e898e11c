//go:build windows

package transport

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// setReuseOptions enables SO_REUSEADDR. Windows has no SO_REUSEPORT, but
// its SO_REUSEADDR already permits multiple processes to bind the same
// port, the behavior this module needs for mDNS coexistence.
func setReuseOptions(fd uintptr) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) { sockErr = setReuseOptions(fd) }); err != nil {
		return err
	}
	return sockErr
}
