//go:build darwin

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseOptions enables SO_REUSEADDR and SO_REUSEPORT, both supported
// by BSD-derived socket stacks, so this module's mDNS sockets can coexist
// with mDNSResponder on port 5353.
func setReuseOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) { sockErr = setReuseOptions(fd) }); err != nil {
		return err
	}
	return sockErr
}
