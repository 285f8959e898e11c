package agent

import (
	"strings"
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/wire"
)

// handleReply walks a reply's records to assemble or update peer state.
// PTR, SRV and A/AAAA records may arrive in any order and possibly
// split across datagrams, so the agent
// keeps per-instance partial state keyed by the instance name it learns
// from the PTR answer, and only surfaces a Peer once it has at least one
// address for that instance.
func (a *Agent) handleReply(msg *wire.Message) *Peer {
	now := time.Now()
	touched := ""

	records := make([]wire.Record, 0, len(msg.Answers)+len(msg.Additionals)+len(msg.Authorities))
	records = append(records, msg.Answers...)
	records = append(records, msg.Authorities...)
	records = append(records, msg.Additionals...)

	// Pass 1: PTR answers name new or renewed instances.
	for _, rr := range records {
		ptr, ok := rr.Data.(wire.PTR)
		if !ok || !strings.EqualFold(rr.Name, a.service.Name) {
			continue
		}
		instance := ptr.Target
		if strings.EqualFold(instance, a.instanceName) {
			// Invariant: never surface ourselves as a discovered peer.
			continue
		}

		p := a.peerFor(instance)
		p.ttl = time.Duration(rr.TTL) * time.Second
		p.refreshedAt = now
		touched = instance
	}

	// Pass 2: SRV records supply the target host and port for an
	// instance the agent already knows about from a PTR answer (in this
	// message or an earlier one).
	for _, rr := range records {
		srv, ok := rr.Data.(wire.SRV)
		if !ok {
			continue
		}
		p, exists := a.peers[rr.Name]
		if !exists {
			continue
		}
		p.target = srv.Target
		p.port = srv.Port
		p.refreshedAt = now
		touched = rr.Name
	}

	// Pass 3: A/AAAA records contribute addresses to any instance whose
	// SRV target names this host.
	for _, rr := range records {
		var ip []byte
		var family hostinfo.Family
		switch d := rr.Data.(type) {
		case wire.A:
			ip, family = d.Addr, hostinfo.IPv4
		case wire.AAAA:
			ip, family = d.Addr, hostinfo.IPv6
		default:
			continue
		}

		for name, p := range a.peers {
			if p.target == "" || !strings.EqualFold(p.target, rr.Name) {
				continue
			}
			addr := Address{IP: append([]byte(nil), ip...), Port: p.port, Family: family}
			if !containsAddress(p.addrs, addr) {
				p.addrs = append(p.addrs, addr)
			}
			p.refreshedAt = now
			touched = name
		}
	}

	if touched == "" {
		return nil
	}
	p, ok := a.peers[touched]
	if !ok || len(p.addrs) == 0 {
		return nil
	}
	peer := p.toPeer()
	return &peer
}

// peerFor returns the existing partial state for instance, or creates
// one, evicting the oldest entry first if the table is at its fixed
// capacity.
func (a *Agent) peerFor(instance string) *peerState {
	if p, ok := a.peers[instance]; ok {
		return p
	}
	if len(a.peers) >= a.cap {
		a.evictOldest()
	}
	p := &peerState{name: instance}
	a.peers[instance] = p
	return p
}

func (a *Agent) evictOldest() {
	var oldestName string
	var oldestAt time.Time
	first := true
	for name, p := range a.peers {
		if first || p.refreshedAt.Before(oldestAt) {
			oldestName, oldestAt, first = name, p.refreshedAt, false
		}
	}
	if oldestName != "" {
		delete(a.peers, oldestName)
	}
}

func containsAddress(addrs []Address, addr Address) bool {
	for _, a := range addrs {
		if a.Family == addr.Family && a.Port == addr.Port && a.IP.Equal(addr.IP) {
			return true
		}
	}
	return false
}
