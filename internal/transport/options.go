package transport

import (
	"time"

	"github.com/quietloop/seekdns/protocol"
)

// Mode selects how Open treats the destination address.
type Mode int

const (
	// ModeConnected dials a single unicast peer.
	ModeConnected Mode = iota

	// ModeMulticast binds the wildcard address and joins a multicast
	// group, the mode used by both the mDNS resolver and the service
	// agent.
	ModeMulticast
)

// Options configures a Socket. The zero value is not valid; use
// DefaultOptions and the With* functions.
type Options struct {
	Timeout              time.Duration
	Mode                 Mode
	LoopbackOwnMulticast bool
	MulticastHops        int
}

// DefaultOptions matches this module's documented defaults: a 1 second
// receive timeout, multicast loopback enabled, hop limit 1 (link-local
// only, the correct scope for mDNS).
func DefaultOptions() Options {
	return Options{
		Timeout:              protocol.DefaultReceiveTimeout,
		Mode:                 ModeConnected,
		LoopbackOwnMulticast: true,
		MulticastHops:        1,
	}
}

// Option mutates Options during Open.
type Option func(*Options)

// WithTimeout overrides the receive timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithMode records the Mode in Options. Open does not consult it: the
// destination address alone selects multicast (a multicast IP) or
// connected (any other address) mode.
func WithMode(m Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithMulticastLoopback toggles whether the socket receives its own
// multicast transmissions.
func WithMulticastLoopback(v bool) Option {
	return func(o *Options) { o.LoopbackOwnMulticast = v }
}

// WithMulticastHops sets the multicast TTL (IPv4) / hop limit (IPv6).
func WithMulticastHops(hops int) Option {
	return func(o *Options) { o.MulticastHops = hops }
}
