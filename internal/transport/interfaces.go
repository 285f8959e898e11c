package transport

import "net"

// joinInterfaces returns the local network interfaces this module should
// join multicast groups on: up, multicast-capable, not loopback, and not
// a VPN or container bridge interface whose membership would either fail
// outright or just add noise no peer on the real link will ever answer.
//
// This is strictly a transport-level join filter. It has no bearing on
// hostinfo.LocalAddresses, which reports every interface (loopback and
// down included) so the agent can apply its own response-composition
// rules.
func joinInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]net.Interface, 0, len(all))
	for _, iface := range all {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVPNInterface(iface.Name) || isContainerInterface(iface.Name) {
			continue
		}
		out = append(out, iface)
	}
	return out, nil
}

func isVPNInterface(name string) bool {
	for _, prefix := range []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"} {
		if hasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func isContainerInterface(name string) bool {
	if name == "docker0" {
		return true
	}
	for _, prefix := range []string{"veth", "br-"} {
		if hasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
