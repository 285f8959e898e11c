//go:build !windows

package hostinfo

import (
	"bufio"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

// PosixResolvers reads nameserver addresses from a resolv.conf-formatted
// file, the POSIX convention for system resolver configuration.
type PosixResolvers struct {
	// Path defaults to /etc/resolv.conf.
	Path string
}

// NewSystemResolvers returns the default SystemResolvers provider for this
// platform.
func NewSystemResolvers() SystemResolvers {
	return &PosixResolvers{Path: "/etc/resolv.conf"}
}

// Resolvers implements SystemResolvers.
func (p *PosixResolvers) Resolvers() ([]string, error) {
	path := p.Path
	if path == "" {
		path = "/etc/resolv.conf"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, dnserr.NewNetError("read resolv.conf", path, dnserr.ErrNoResolver)
	}
	defer f.Close()

	var servers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		ip := net.ParseIP(fields[1])
		if ip == nil {
			continue
		}
		servers = append(servers, net.JoinHostPort(fields[1], strconv.Itoa(protocol.Port)))
	}
	if err := scanner.Err(); err != nil {
		return nil, dnserr.NewNetError("read resolv.conf", path, dnserr.ErrIO)
	}

	if len(servers) == 0 {
		return nil, dnserr.ErrNoResolver
	}
	return servers, nil
}
