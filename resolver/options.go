package resolver

import (
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/internal/telemetry"
)

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithSystemResolvers overrides the default platform SystemResolvers
// provider, chiefly so tests can inject a fixed address list.
func WithSystemResolvers(p hostinfo.SystemResolvers) Option {
	return func(r *Resolver) { r.resolvers = p }
}

// WithPerHopTimeout overrides the per-socket receive timeout used for
// both unicast replies and each mDNS round-robin probe.
func WithPerHopTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.perHopTimeout = d }
}

// WithMaxConsecutiveTimeouts overrides the bound on consecutive mDNS
// round-robin probe timeouts before a query reports "no more" (reference
// tuning: 9, matching roughly one second of dwell at a 100ms probe
// timeout across two sockets).
func WithMaxConsecutiveTimeouts(n int) Option {
	return func(r *Resolver) { r.maxConsecutiveTimeouts = n }
}

// WithMetrics attaches a telemetry.Collector the resolver increments as
// it sends queries, decodes replies, and times out.
func WithMetrics(c *telemetry.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}
