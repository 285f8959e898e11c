package wire

import (
	"net"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

// RecordData is the type-specific payload of a resource record. Each
// concrete type below knows its own RFC 1035/2782 wire layout; Raw is the
// fallback for any record type this module doesn't special-case.
type RecordData interface {
	Type() protocol.RecordType
	encode() ([]byte, error)
}

// A is an IPv4 address record (RFC 1035 §3.4.1).
type A struct{ Addr net.IP }

func (A) Type() protocol.RecordType { return protocol.TypeA }

func (r A) encode() ([]byte, error) {
	ip4 := r.Addr.To4()
	if ip4 == nil {
		return nil, &dnserr.ValidationError{Field: "A.Addr", Value: r.Addr, Msg: "not an IPv4 address"}
	}
	return []byte(ip4), nil
}

// AAAA is an IPv6 address record (RFC 3596).
type AAAA struct{ Addr net.IP }

func (AAAA) Type() protocol.RecordType { return protocol.TypeAAAA }

func (r AAAA) encode() ([]byte, error) {
	ip16 := r.Addr.To16()
	if ip16 == nil || r.Addr.To4() != nil {
		return nil, &dnserr.ValidationError{Field: "AAAA.Addr", Value: r.Addr, Msg: "not an IPv6 address"}
	}
	return []byte(ip16), nil
}

// PTR is a domain-name pointer record (RFC 1035 §3.3.12), used for
// DNS-SD's service-type and service-instance enumeration.
type PTR struct{ Target string }

func (PTR) Type() protocol.RecordType { return protocol.TypePTR }

// A PTR target under a DNS-SD service type is an instance name, so the
// encoding tolerates an instance leading label.
func (r PTR) encode() ([]byte, error) { return encodeDNSSDName(r.Target) }

// SRV is a service location record (RFC 2782): priority, weight, port and
// a target host name.
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

func (SRV) Type() protocol.RecordType { return protocol.TypeSRV }

func (r SRV) encode() ([]byte, error) {
	name, err := encodeName(r.Target)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 6, 6+len(name))
	putUint16(buf[0:2], r.Priority)
	putUint16(buf[2:4], r.Weight)
	putUint16(buf[4:6], r.Port)
	return append(buf, name...), nil
}

// TXT is a set of opaque strings (RFC 1035 §3.3.14), conventionally
// key=value pairs for DNS-SD service metadata.
type TXT struct{ Strings []string }

func (TXT) Type() protocol.RecordType { return protocol.TypeTXT }

func (r TXT) encode() ([]byte, error) {
	var buf []byte
	for _, s := range r.Strings {
		if len(s) > 255 {
			return nil, &dnserr.ValidationError{Field: "TXT.Strings", Value: s, Msg: "character-string exceeds 255 bytes"}
		}
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	if buf == nil {
		// RFC 6763 §6.1: a TXT record with no pairs still needs a single
		// empty string so RDLENGTH is 1, not 0.
		buf = []byte{0}
	}
	return buf, nil
}

// Raw is the fallback for record types this module doesn't parse
// structurally: the RDATA bytes are carried verbatim.
type Raw struct {
	RRType protocol.RecordType
	Bytes  []byte
}

func (r Raw) Type() protocol.RecordType { return r.RRType }

func (r Raw) encode() ([]byte, error) { return r.Bytes, nil }

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// decodeRDATA parses the RDATA of a record of the given type. msg and
// rdataOffset/rdlength locate the RDATA within the full message buffer:
// names inside RDATA (PTR targets, SRV targets) are decoded against msg at
// their absolute offset, never against an isolated copy of the RDATA
// bytes, so a compression pointer inside RDATA can still reach back into
// the Question section or an earlier record's NAME.
func decodeRDATA(msg []byte, rrType protocol.RecordType, rdataOffset, rdlength int) (RecordData, error) {
	end := rdataOffset + rdlength
	if end > len(msg) {
		return nil, dnserr.NewWireError("decode rdata", rdataOffset, "rdlength exceeds message", dnserr.ErrMalformed)
	}
	data := msg[rdataOffset:end]

	switch rrType {
	case protocol.TypeA:
		if len(data) != 4 {
			return nil, dnserr.NewWireError("decode rdata", rdataOffset, "A record must be 4 bytes", dnserr.ErrMalformed)
		}
		ip := make(net.IP, 4)
		copy(ip, data)
		return A{Addr: ip}, nil

	case protocol.TypeAAAA:
		if len(data) != 16 {
			return nil, dnserr.NewWireError("decode rdata", rdataOffset, "AAAA record must be 16 bytes", dnserr.ErrMalformed)
		}
		ip := make(net.IP, 16)
		copy(ip, data)
		return AAAA{Addr: ip}, nil

	case protocol.TypePTR:
		target, _, err := decodeName(msg, rdataOffset)
		if err != nil {
			return nil, err
		}
		return PTR{Target: target}, nil

	case protocol.TypeSRV:
		if len(data) < 6 {
			return nil, dnserr.NewWireError("decode rdata", rdataOffset, "SRV record too short", dnserr.ErrMalformed)
		}
		target, _, err := decodeName(msg, rdataOffset+6)
		if err != nil {
			return nil, err
		}
		return SRV{
			Priority: getUint16(data[0:2]),
			Weight:   getUint16(data[2:4]),
			Port:     getUint16(data[4:6]),
			Target:   target,
		}, nil

	case protocol.TypeTXT:
		var strs []string
		pos := 0
		for pos < len(data) {
			l := int(data[pos])
			pos++
			if pos+l > len(data) {
				return nil, dnserr.NewWireError("decode rdata", rdataOffset+pos, "truncated TXT character-string", dnserr.ErrUnexpectedEOF)
			}
			strs = append(strs, string(data[pos:pos+l]))
			pos += l
		}
		return TXT{Strings: strs}, nil

	default:
		raw := make([]byte, len(data))
		copy(raw, data)
		return Raw{RRType: rrType, Bytes: raw}, nil
	}
}
