// Package resolver selects between unicast DNS and multicast DNS by name
// suffix, fans a query out across the appropriate sockets, and streams
// back decodable replies one message at a time. Query/Next is a
// cooperative pump the caller drives, in the same style as this
// module's service agent — but Next exposes the raw decoded Message
// rather than an aggregated, deduplicated Response: matching a reply to
// its question is left to the caller or to the service agent built on
// top of it.
package resolver

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/internal/telemetry"
	"github.com/quietloop/seekdns/internal/transport"
	"github.com/quietloop/seekdns/protocol"
	"github.com/quietloop/seekdns/wire"
)

// mode distinguishes the two query strategies the Resolver picks between.
type mode int

const (
	modeUnicast mode = iota
	modeMDNS
)

// Resolver performs one query at a time: Query begins it, Next streams
// replies, Close releases whatever sockets the query opened. A Resolver
// is reusable for a new Query after Close, but is not safe for concurrent
// use by more than one goroutine; a multi-threaded embedding must
// serialize calls to a given engine instance.
type Resolver struct {
	resolvers              hostinfo.SystemResolvers
	perHopTimeout          time.Duration
	maxConsecutiveTimeouts int
	metrics                *telemetry.Collector

	mode mode

	// unicast state
	uSockets []*transport.Socket
	uIndex   int

	// mDNS state
	mSockets             [2]*transport.Socket // [0]=v4, [1]=v6
	mCursor              int
	mConsecutiveTimeouts int
}

// New builds a Resolver. Without WithSystemResolvers, unicast queries
// consult the platform default provider (hostinfo.NewSystemResolvers).
func New(opts ...Option) *Resolver {
	r := &Resolver{
		resolvers:              hostinfo.NewSystemResolvers(),
		perHopTimeout:          100 * time.Millisecond,
		maxConsecutiveTimeouts: 9,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// isMDNSName reports whether name should be resolved via multicast DNS:
// any name ending in ".local", or "local" itself, case-insensitively.
func isMDNSName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".local") ||
		strings.EqualFold(name, "local")
}

// Query begins resolving name for the given record type. It opens
// whatever sockets the chosen mode requires and sends the first query
// datagram(s); Next then streams back replies. Calling Query again
// without an intervening Close leaks the previous query's sockets, so
// callers must Close before reusing a Resolver.
func (r *Resolver) Query(name string, rtype protocol.RecordType) error {
	q := wire.Question{Name: name, Type: rtype, Class: protocol.ClassIN}

	if isMDNSName(name) {
		return r.queryMDNS(q)
	}
	return r.queryUnicast(q)
}

func (r *Resolver) queryUnicast(q wire.Question) error {
	r.mode = modeUnicast

	addrs, err := r.resolvers.Resolvers()
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return dnserr.ErrNoResolver
	}

	msg := &wire.Message{
		Header:    wire.Header{ID: transactionID()},
		Questions: []wire.Question{q},
	}
	msg.Header.SetFlag(protocol.FlagRD, true)
	msg.Header.SetFlag(protocol.FlagRA, true)

	buf, err := wire.EncodeMessage(msg)
	if err != nil {
		return err
	}

	r.uSockets = r.uSockets[:0]
	for _, addr := range addrs {
		sock, err := transport.Open(addr, transport.WithTimeout(r.perHopTimeout), transport.WithMode(transport.ModeConnected))
		if err != nil {
			continue
		}
		if err := sock.Send(buf); err != nil {
			sock.Close()
			continue
		}
		if r.metrics != nil {
			r.metrics.QueriesSent.Inc()
		}
		r.uSockets = append(r.uSockets, sock)
	}
	if len(r.uSockets) == 0 {
		return dnserr.ErrNoResolver
	}
	r.uIndex = 0
	return nil
}

func (r *Resolver) queryMDNS(q wire.Question) error {
	r.mode = modeMDNS

	msg := &wire.Message{Questions: []wire.Question{q}}
	// mDNS convention: RD=0, RA=0, ID=0.

	buf, err := wire.EncodeMessage(msg)
	if err != nil {
		return err
	}

	v4, err := transport.Open(net.JoinHostPort(protocol.MulticastAddrIPv4, strconv.Itoa(protocol.MDNSPort)),
		transport.WithTimeout(r.perHopTimeout))
	if err != nil {
		return err
	}
	v6, err := transport.Open(net.JoinHostPort(protocol.MulticastAddrIPv6, strconv.Itoa(protocol.MDNSPort)),
		transport.WithTimeout(r.perHopTimeout))
	if err != nil {
		v4.Close()
		return err
	}

	r.mSockets = [2]*transport.Socket{v4, v6}
	if err := v4.SendTo(buf, protocol.MulticastGroupIPv4()); err != nil {
		r.closeMDNS()
		return err
	}
	if err := v6.SendTo(buf, protocol.MulticastGroupIPv6()); err != nil {
		r.closeMDNS()
		return err
	}
	if r.metrics != nil {
		r.metrics.QueriesSent.Add(2)
	}

	r.mCursor = 0
	r.mConsecutiveTimeouts = 0
	return nil
}

// Next returns the next decodable reply, or (nil, nil) when the query is
// exhausted. Per-packet decode failures and per-hop timeouts are
// swallowed and advance internal state rather than propagating.
func (r *Resolver) Next() (*wire.Message, error) {
	switch r.mode {
	case modeUnicast:
		return r.nextUnicast()
	case modeMDNS:
		return r.nextMDNS()
	default:
		return nil, nil
	}
}

func (r *Resolver) nextUnicast() (*wire.Message, error) {
	for r.uIndex < len(r.uSockets) {
		sock := r.uSockets[r.uIndex]
		buf, _, err := sock.Receive()
		if err != nil {
			// Timeout or I/O error on this resolver: fall through to the
			// next one.
			if r.metrics != nil && err == dnserr.ErrTimeout {
				r.metrics.Timeouts.Inc()
			}
			r.uIndex++
			continue
		}

		msg, err := wire.DecodeMessage(buf)
		if err != nil {
			if r.metrics != nil {
				r.metrics.DecodeErrors.Inc()
			}
			r.uIndex++
			continue
		}
		if len(msg.Answers) == 0 && msg.Header.RCode() == protocol.RCodeNoError {
			r.uIndex++
			continue
		}

		if r.metrics != nil {
			r.metrics.RepliesDecoded.Inc()
		}
		// First resolver with a decodable reply that is not an empty
		// NOERROR answer terminates iteration.
		r.uIndex = len(r.uSockets)
		return msg, nil
	}
	return nil, nil
}

func (r *Resolver) nextMDNS() (*wire.Message, error) {
	for r.mConsecutiveTimeouts < r.maxConsecutiveTimeouts {
		sock := r.mSockets[r.mCursor]
		buf, _, err := sock.Receive()
		if err != nil {
			if r.metrics != nil && err == dnserr.ErrTimeout {
				r.metrics.Timeouts.Inc()
			}
			r.mConsecutiveTimeouts++
			r.mCursor = 1 - r.mCursor
			continue
		}

		msg, err := wire.DecodeMessage(buf)
		if err != nil {
			if r.metrics != nil {
				r.metrics.DecodeErrors.Inc()
			}
			r.mConsecutiveTimeouts++
			r.mCursor = 1 - r.mCursor
			continue
		}
		if msg.Header.IsQuery() {
			// A query (this resolver's own included, looped back by the
			// multicast socket) is not a reply; it counts as a failed probe.
			r.mConsecutiveTimeouts++
			r.mCursor = 1 - r.mCursor
			continue
		}

		if r.metrics != nil {
			r.metrics.RepliesDecoded.Inc()
		}
		r.mConsecutiveTimeouts = 0
		r.mCursor = 1 - r.mCursor
		return msg, nil
	}
	return nil, nil
}

// Close releases whatever sockets the current query opened. It is safe
// to call more than once or on a Resolver that never had Query called.
func (r *Resolver) Close() error {
	var firstErr error
	switch r.mode {
	case modeUnicast:
		for _, s := range r.uSockets {
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		r.uSockets = nil
	case modeMDNS:
		if err := r.closeMDNS(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Resolver) closeMDNS() error {
	var firstErr error
	for i, s := range r.mSockets {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.mSockets[i] = nil
	}
	return firstErr
}

// transactionID derives a query ID from the current time. Coarse
// uniqueness is all that's needed here; callers doing heavy
// parallelism should supply their own IDs by wrapping the Resolver.
func transactionID() uint16 {
	return uint16(time.Now().UnixNano())
}
