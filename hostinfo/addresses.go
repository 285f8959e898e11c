package hostinfo

import "net"

// DefaultLocalAddresses enumerates every address bound to every local
// network interface, loopback and down interfaces included with their
// flags set rather than filtered out — the agent decides what to skip
// (see its response-composition invariants), not this provider.
type DefaultLocalAddresses struct{}

// Addresses implements LocalAddresses.
func (DefaultLocalAddresses) Addresses() ([]InterfaceAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []InterfaceAddress
	for _, iface := range ifaces {
		up := iface.Flags&net.FlagUp != 0
		loopback := iface.Flags&net.FlagLoopback != 0

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			default:
				continue
			}

			family := IPv4
			if ip.To4() == nil {
				family = IPv6
			}

			out = append(out, InterfaceAddress{
				Name:     iface.Name,
				Family:   family,
				Addr:     ip,
				Up:       up,
				Loopback: loopback,
			})
		}
	}
	return out, nil
}
