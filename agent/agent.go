// Package agent implements the mDNS service agent: a combined
// responder/discoverer bound to the mDNS multicast groups on both
// address families. It answers inbound PTR queries for
// the caller's own service with a PTR/SRV/A(AAAA) response, and
// assembles records from inbound replies into a small table of
// discovered peers, expiring each as its TTL elapses.
package agent

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/internal/telemetry"
	"github.com/quietloop/seekdns/internal/transport"
	"github.com/quietloop/seekdns/protocol"
	"github.com/quietloop/seekdns/wire"
	"golang.org/x/time/rate"
)

// defaultPeerCapacity is the reference fixed capacity for the peer table.
const defaultPeerCapacity = 64

// defaultTTLSeconds is the default TTL advertised on this agent's own
// records unless WithTTL overrides it.
const defaultTTLSeconds = 600

// Service describes the caller's own service instance: its DNS-SD
// service type (e.g. "_hello._tcp.local") and the port it listens on.
type Service struct {
	Name string
	Port uint16
}

// Address is one discovered (or advertised) host+port pair of a
// particular address family.
type Address struct {
	IP     net.IP
	Port   uint16
	Family hostinfo.Family
}

// Peer is a discovered service instance, assembled from a PTR answer
// plus the SRV and A/AAAA records naming the same instance.
type Peer struct {
	Name      string
	TTL       time.Duration
	Addresses []Address
}

// peerState is the agent's mutable bookkeeping for one Peer: the partial
// state accumulated while PTR/SRV/A/AAAA records for an instance arrive
// across one or more datagrams, in any order.
type peerState struct {
	name        string
	ttl         time.Duration
	target      string // host named by the SRV record, once known
	port        uint16
	addrs       []Address
	refreshedAt time.Time
}

func (p *peerState) toPeer() Peer {
	addrs := make([]Address, len(p.addrs))
	copy(addrs, p.addrs)
	return Peer{Name: p.name, TTL: p.ttl, Addresses: addrs}
}

func (p *peerState) expired(now time.Time) bool {
	if p.ttl <= 0 {
		return false
	}
	return now.After(p.refreshedAt.Add(p.ttl)) || now.Equal(p.refreshedAt.Add(p.ttl))
}

// Agent is the mDNS responder/discoverer. It owns two multicast sockets
// (v4 and v6), answers queries for its own Service, and tracks peers
// discovered from other instances' replies.
//
// Agent follows the same single-threaded cooperative model as
// resolver.Resolver: Query and Handle are explicit pumps the caller
// drives from its own loop; there is no background goroutine here.
type Agent struct {
	service  Service
	hostname string

	instanceName string // <hostname>.<service.Name>, this agent's own advertised name
	targetHost   string // <hostname>.local

	ttl time.Duration

	localAddrs hostinfo.LocalAddresses

	v4 *transport.Socket
	v6 *transport.Socket

	peers map[string]*peerState
	cap   int

	limiter *rate.Limiter
	metrics *telemetry.Collector
}

// New opens the agent's v4 and v6 multicast sockets and derives its
// advertised instance name from svc and the local hostname.
func New(svc Service, opts ...Option) (*Agent, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	a := &Agent{
		service:      svc,
		hostname:     hostname,
		instanceName: hostname + "." + svc.Name,
		targetHost:   hostname + ".local",
		ttl:          defaultTTLSeconds * time.Second,
		localAddrs:   hostinfo.DefaultLocalAddresses{},
		peers:        make(map[string]*peerState),
		cap:          defaultPeerCapacity,
		limiter:      rate.NewLimiter(rate.Limit(50), 100),
	}
	for _, opt := range opts {
		opt(a)
	}

	v4, err := transport.Open(net.JoinHostPort(protocol.MulticastAddrIPv4, strconv.Itoa(protocol.MDNSPort)))
	if err != nil {
		return nil, err
	}
	v6, err := transport.Open(net.JoinHostPort(protocol.MulticastAddrIPv6, strconv.Itoa(protocol.MDNSPort)))
	if err != nil {
		v4.Close()
		return nil, err
	}
	a.v4, a.v6 = v4, v6

	return a, nil
}

// Query emits a PTR question for the agent's service name on both
// multicast sockets.
func (a *Agent) Query() error {
	msg := &wire.Message{
		Questions: []wire.Question{{Name: a.service.Name, Type: protocol.TypePTR, Class: protocol.ClassIN}},
	}
	buf, err := wire.EncodeMessage(msg)
	if err != nil {
		return err
	}
	if err := a.v4.SendTo(buf, protocol.MulticastGroupIPv4()); err != nil {
		return err
	}
	if err := a.v6.SendTo(buf, protocol.MulticastGroupIPv6()); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.QueriesSent.Add(2)
	}
	return nil
}

// Handle performs one unit of work: it reads at most one datagram across
// the two sockets (trying v4 then v6, each with its configured
// timeout), and if a decodable message arrives, dispatches on its QR
// bit. It returns a non-nil Peer when a reply newly discovers or
// refreshes one; it returns (nil, nil) when nothing decodable arrived
// this round, which is normal, not an error.
func (a *Agent) Handle() (*Peer, error) {
	for _, sock := range []*transport.Socket{a.v4, a.v6} {
		family := hostinfo.IPv4
		if sock == a.v6 {
			family = hostinfo.IPv6
		}

		buf, _, err := sock.Receive()
		if err != nil {
			// Receive-path failures (timeout or I/O) are swallowed and
			// advance to the next socket, matching the Resolver's
			// failure semantics; only send-path I/O propagates.
			if a.metrics != nil && err == dnserr.ErrTimeout {
				a.metrics.Timeouts.Inc()
			}
			continue
		}

		msg, err := wire.DecodeMessage(buf)
		if err != nil {
			if a.metrics != nil {
				a.metrics.DecodeErrors.Inc()
			}
			return nil, nil
		}
		if a.metrics != nil {
			a.metrics.RepliesDecoded.Inc()
		}

		if msg.Header.IsQuery() {
			if err := a.handleQuery(msg, family); err != nil {
				return nil, err
			}
			return nil, nil
		}

		return a.handleReply(msg), nil
	}
	return nil, nil
}

// Peers lists currently valid (unexpired) peers, first pruning any
// entry whose TTL has elapsed (a TTL of
// zero means no expiry and is retained indefinitely).
func (a *Agent) Peers() []Peer {
	now := time.Now()
	out := make([]Peer, 0, len(a.peers))
	for name, p := range a.peers {
		if p.expired(now) {
			delete(a.peers, name)
			continue
		}
		if len(p.addrs) == 0 {
			continue
		}
		out = append(out, p.toPeer())
	}
	if a.metrics != nil {
		a.metrics.PeersTracked.Set(float64(len(out)))
	}
	return out
}

// Close shuts down both multicast sockets.
func (a *Agent) Close() error {
	var firstErr error
	if a.v4 != nil {
		if err := a.v4.Close(); err != nil {
			firstErr = err
		}
	}
	if a.v6 != nil {
		if err := a.v6.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
