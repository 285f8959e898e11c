// Package transport is the datagram socket layer the resolver and agent
// build on: a typed wrapper around a UDP PacketConn offering open/send/
// receive/close, automatic detection of a multicast destination, and
// per-interface multicast group membership for both IPv4 and IPv6.
package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

// Socket is a thin, typed UDP socket. It is not safe for concurrent use;
// the resolver and agent each own their sockets exclusively, matching
// this module's single-threaded cooperative scheduling model.
//
// Exactly one of conn and dialed is set: conn is the unconnected socket
// bound for multicast, dialed the connected unicast socket. The split
// matters on the send path — a connected *net.UDPConn rejects WriteTo
// with ErrWriteToConnected, so the two modes cannot share one code path.
type Socket struct {
	conn   net.PacketConn
	dialed net.Conn
	p4     *ipv4.PacketConn
	p6     *ipv6.PacketConn
	opts   Options
}

// Open creates a socket for address. A link-local multicast address
// (IPv4 224.0.0.0/4 or IPv6 ff00::/8) switches the socket into multicast
// mode regardless of the Mode option: it binds the wildcard address at
// address's port with SO_REUSEADDR/SO_REUSEPORT, joins the group on every
// interface from joinInterfaces, and configures loopback/hops from
// Options. Any other address dials a connected unicast socket.
func Open(address string, opts ...Option) (*Socket, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, dnserr.NewNetError("open socket", address, dnserr.ErrIO)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, dnserr.NewNetError("open socket", address, dnserr.ErrIO)
	}

	ip := net.ParseIP(host)
	if ip != nil && ip.IsMulticast() {
		return openMulticast(ip, port, o)
	}
	return openUnicast(address, o)
}

func openUnicast(address string, o Options) (*Socket, error) {
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, dnserr.NewNetError("dial", address, dnserr.ErrIO)
	}
	return &Socket{dialed: conn, opts: o}, nil
}

func openMulticast(group net.IP, port int, o Options) (*Socket, error) {
	network := "udp4"
	if group.To4() == nil {
		network = "udp6"
	}

	lc := net.ListenConfig{Control: platformControl}
	conn, err := lc.ListenPacket(context.Background(), network, net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, dnserr.NewNetError("bind multicast socket", net.JoinHostPort(group.String(), strconv.Itoa(port)), dnserr.ErrIO)
	}

	ifaces, err := joinInterfaces()
	if err != nil {
		_ = conn.Close()
		return nil, dnserr.NewNetError("enumerate interfaces", "", dnserr.ErrIO)
	}

	s := &Socket{conn: conn, opts: o}

	if network == "udp4" {
		p4 := ipv4.NewPacketConn(conn)
		group4 := &net.UDPAddr{IP: group, Port: port}
		joined := 0
		for _, iface := range ifaces {
			if err := p4.JoinGroup(&iface, group4); err == nil {
				joined++
			}
		}
		if joined == 0 {
			if err := p4.JoinGroup(nil, group4); err != nil {
				_ = conn.Close()
				return nil, dnserr.NewNetError("join multicast group", group.String(), dnserr.ErrIO)
			}
		}
		_ = p4.SetMulticastLoopback(o.LoopbackOwnMulticast)
		_ = p4.SetMulticastTTL(o.MulticastHops)
		s.p4 = p4
	} else {
		p6 := ipv6.NewPacketConn(conn)
		group6 := &net.UDPAddr{IP: group, Port: port}
		joined := 0
		for _, iface := range ifaces {
			if err := p6.JoinGroup(&iface, group6); err == nil {
				joined++
			}
		}
		if joined == 0 {
			if err := p6.JoinGroup(nil, group6); err != nil {
				_ = conn.Close()
				return nil, dnserr.NewNetError("join multicast group", group.String(), dnserr.ErrIO)
			}
		}
		_ = p6.SetMulticastLoopback(o.LoopbackOwnMulticast)
		_ = p6.SetMulticastHopLimit(o.MulticastHops)
		s.p6 = p6
	}

	return s, nil
}

// Send writes b to the connected peer. Only valid for unicast sockets
// opened against a non-multicast address.
func (s *Socket) Send(b []byte) error {
	if s.dialed == nil {
		return dnserr.NewNetError("send", "socket is not connected", dnserr.ErrIO)
	}
	n, err := s.dialed.Write(b)
	if err != nil {
		return dnserr.NewNetError("send", s.dialed.RemoteAddr().String(), dnserr.ErrIO)
	}
	if n != len(b) {
		return dnserr.NewNetError("send", "partial write", dnserr.ErrIO)
	}
	return nil
}

// SendTo writes b to dest, used by multicast sockets to emit to the
// group address. Only valid for multicast sockets; a connected unicast
// socket sends with Send.
func (s *Socket) SendTo(b []byte, dest net.Addr) error {
	if s.conn == nil {
		return dnserr.NewNetError("send", "socket is connected; use Send", dnserr.ErrIO)
	}
	n, err := s.conn.WriteTo(b, dest)
	if err != nil {
		return dnserr.NewNetError("send", dest.String(), dnserr.ErrIO)
	}
	if n != len(b) {
		return dnserr.NewNetError("send", "partial write", dnserr.ErrIO)
	}
	return nil
}

// Receive waits up to the configured timeout for one datagram. A timeout
// is reported via dnserr.ErrTimeout; callers (the resolver, the agent)
// treat it as "nothing more from this source this round", not a fatal
// error.
func (s *Socket) Receive() ([]byte, net.Addr, error) {
	timeout := s.opts.Timeout
	if timeout <= 0 {
		timeout = protocol.DefaultReceiveTimeout
	}
	deadline := time.Now().Add(timeout)

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buf := *bufPtr

	var (
		n    int
		addr net.Addr
		err  error
	)
	if s.dialed != nil {
		if err := s.dialed.SetReadDeadline(deadline); err != nil {
			return nil, nil, dnserr.NewNetError("set read deadline", "", dnserr.ErrIO)
		}
		n, err = s.dialed.Read(buf)
		addr = s.dialed.RemoteAddr()
	} else {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, dnserr.NewNetError("set read deadline", "", dnserr.ErrIO)
		}
		n, addr, err = s.conn.ReadFrom(buf)
	}
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, dnserr.ErrTimeout
		}
		return nil, nil, dnserr.NewNetError("receive", "", dnserr.ErrIO)
	}

	out := make([]byte, n)
	copy(out, buf[:n])
	return out, addr, nil
}

// Close releases the socket's resources.
func (s *Socket) Close() error {
	if s.dialed != nil {
		if err := s.dialed.Close(); err != nil {
			return dnserr.NewNetError("close", "", dnserr.ErrIO)
		}
		return nil
	}
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return dnserr.NewNetError("close", "", dnserr.ErrIO)
	}
	return nil
}
