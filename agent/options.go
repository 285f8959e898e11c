package agent

import (
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/internal/telemetry"
	"golang.org/x/time/rate"
)

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithHostname overrides the system hostname New would otherwise derive
// from os.Hostname, chiefly so tests get a deterministic instance name.
func WithHostname(hostname string) Option {
	return func(a *Agent) {
		a.hostname = hostname
		a.instanceName = hostname + "." + a.service.Name
		a.targetHost = hostname + ".local"
	}
}

// WithTTL overrides the TTL advertised on this agent's own records
// (default 600s).
func WithTTL(d time.Duration) Option {
	return func(a *Agent) { a.ttl = d }
}

// WithLocalAddresses overrides the default hostinfo.LocalAddresses
// provider, chiefly so tests can inject a fixed interface list without
// touching the host's real network configuration.
func WithLocalAddresses(p hostinfo.LocalAddresses) Option {
	return func(a *Agent) { a.localAddrs = p }
}

// WithPeerCapacity overrides the fixed peer-table capacity (reference
// default 64).
func WithPeerCapacity(n int) Option {
	return func(a *Agent) { a.cap = n }
}

// WithQueryRateLimit overrides the token-bucket rate limiter guarding
// the agent's query-response path against a multicast query storm (RFC
// 6762 §6.2). rps is the steady-state rate, burst the bucket size.
func WithQueryRateLimit(rps float64, burst int) Option {
	return func(a *Agent) { a.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithMetrics attaches a telemetry.Collector the agent increments as it
// sends responses, decodes replies, throttles queries, and tracks peers.
func WithMetrics(c *telemetry.Collector) Option {
	return func(a *Agent) { a.metrics = c }
}
