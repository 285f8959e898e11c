package agent

import (
	"net"
	"strings"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/protocol"
	"github.com/quietloop/seekdns/wire"
)

// handleQuery answers queries addressed to this agent's service type. It
// drops the query silently (per the inbound rate limiter) if the token
// bucket is exhausted, guarding the responder against a multicast query
// storm per RFC 6762 §6.2.
func (a *Agent) handleQuery(msg *wire.Message, family hostinfo.Family) error {
	matches := false
	for _, q := range msg.Questions {
		if strings.EqualFold(q.Name, a.service.Name) && (q.Type == protocol.TypePTR || q.Type == protocol.TypeANY) {
			matches = true
			break
		}
	}
	if !matches {
		return nil
	}

	if a.limiter != nil && !a.limiter.Allow() {
		if a.metrics != nil {
			a.metrics.QueriesThrottled.Inc()
		}
		return nil
	}

	reply, err := a.buildResponse(family)
	if err != nil {
		return err
	}
	buf, err := wire.EncodeMessage(reply)
	if err != nil {
		return err
	}

	sock, group := a.v4, protocol.MulticastGroupIPv4()
	if family == hostinfo.IPv6 {
		sock, group = a.v6, protocol.MulticastGroupIPv6()
	}
	if err := sock.SendTo(buf, group); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.QueriesSent.Inc()
	}
	return nil
}

// buildResponse composes the PTR/SRV/A(AAAA) reply: one PTR answer
// naming this agent's instance, one additional SRV record, and one
// additional address record per up, non-loopback local address of the
// family matching the socket the query arrived on.
func (a *Agent) buildResponse(family hostinfo.Family) (*wire.Message, error) {
	addrs, err := a.localAddrs.Addresses()
	if err != nil {
		return nil, err
	}

	ttl := uint32(a.ttl.Seconds())

	msg := &wire.Message{
		Header: wire.Header{Flags: protocol.FlagQR | protocol.FlagAA},
		Answers: []wire.Record{
			{
				Name:  a.service.Name,
				Type:  protocol.TypePTR,
				Class: protocol.ClassIN,
				TTL:   ttl,
				Data:  wire.PTR{Target: a.instanceName},
			},
		},
		Additionals: []wire.Record{
			{
				Name:  a.instanceName,
				Type:  protocol.TypeSRV,
				Class: protocol.ClassIN,
				TTL:   ttl,
				Data:  wire.SRV{Priority: 0, Weight: 0, Port: a.service.Port, Target: a.targetHost},
			},
		},
	}

	for _, ia := range addrs {
		// Invariant: never announce loopback addresses, and never
		// announce an interface that is down.
		if ia.Loopback || !ia.Up || ia.Family != family {
			continue
		}
		msg.Additionals = append(msg.Additionals, addressRecord(a.targetHost, ia.Addr, family, ttl))
	}

	return msg, nil
}

func addressRecord(host string, ip net.IP, family hostinfo.Family, ttl uint32) wire.Record {
	if family == hostinfo.IPv4 {
		return wire.Record{Name: host, Type: protocol.TypeA, Class: protocol.ClassIN, TTL: ttl, Data: wire.A{Addr: ip}}
	}
	return wire.Record{Name: host, Type: protocol.TypeAAAA, Class: protocol.ClassIN, TTL: ttl, Data: wire.AAAA{Addr: ip}}
}
