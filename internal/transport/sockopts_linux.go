//go:build linux

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseOptions enables SO_REUSEADDR and, where the kernel supports it
// (Linux 3.9+), SO_REUSEPORT, so this module's mDNS sockets can coexist on
// port 5353 with another local responder (Avahi, systemd-resolved).
func setReuseOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		if err != unix.ENOPROTOOPT {
			return err
		}
	}
	return nil
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) { sockErr = setReuseOptions(fd) }); err != nil {
		return err
	}
	return sockErr
}
