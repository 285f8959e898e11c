// Package protocol defines wire-level constants shared by the DNS codec,
// the datagram transport and the mDNS service agent: ports, multicast
// groups, record type numbers, header flag bits and RFC 6762 timing and
// TTL conventions.
package protocol

import (
	"net"
	"time"
)

// Ports and multicast groups.
const (
	// Port is the standard DNS port used for unicast queries.
	Port = 53

	// MDNSPort is the mDNS port per RFC 6762 §5.
	MDNSPort = 5353

	// MulticastAddrIPv4 is the mDNS IPv4 multicast group per RFC 6762 §5.
	MulticastAddrIPv4 = "224.0.0.251"

	// MulticastAddrIPv6 is the mDNS IPv6 multicast group per RFC 6762 §5.
	MulticastAddrIPv6 = "ff02::fb"
)

// MulticastGroupIPv4 returns the mDNS IPv4 multicast group address.
func MulticastGroupIPv4() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(MulticastAddrIPv4), Port: MDNSPort}
}

// MulticastGroupIPv6 returns the mDNS IPv6 multicast group address.
func MulticastGroupIPv6() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(MulticastAddrIPv6), Port: MDNSPort}
}

// RecordType is a DNS resource record type per RFC 1035 §3.2.2.
type RecordType uint16

// Record types used by the codec and resolver.
const (
	TypeA     RecordType = 1
	TypeNS    RecordType = 2
	TypeCNAME RecordType = 5
	TypeSOA   RecordType = 6
	TypePTR   RecordType = 12
	TypeMX    RecordType = 15
	TypeTXT   RecordType = 16
	TypeAAAA  RecordType = 28
	TypeSRV   RecordType = 33
	TypeANY   RecordType = 255
)

// String returns the conventional mnemonic for rt, or a numeric fallback.
func (rt RecordType) String() string {
	switch rt {
	case TypeA:
		return "A"
	case TypeNS:
		return "NS"
	case TypeCNAME:
		return "CNAME"
	case TypeSOA:
		return "SOA"
	case TypePTR:
		return "PTR"
	case TypeMX:
		return "MX"
	case TypeTXT:
		return "TXT"
	case TypeAAAA:
		return "AAAA"
	case TypeSRV:
		return "SRV"
	case TypeANY:
		return "ANY"
	default:
		return "TYPE" + itoa(uint16(rt))
	}
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Class is a DNS resource record class per RFC 1035 §3.2.4.
type Class uint16

const (
	// ClassIN is the Internet class, the only class this module emits. The
	// decoder does not reject other classes.
	ClassIN Class = 1

	// CacheFlushBit is the high bit of the CLASS field mDNS responses set on
	// records that replace (rather than add to) the RRset per RFC 6762 §10.2.
	CacheFlushBit Class = 0x8000

	// classMask strips the cache-flush bit to recover the plain class value.
	classMask Class = 0x7fff
)

// Plain returns c with the cache-flush bit masked off.
func (c Class) Plain() Class { return c & classMask }

// Header flag bits per RFC 1035 §4.1.1.
const (
	FlagQR uint16 = 1 << 15
	FlagAA uint16 = 1 << 10
	FlagTC uint16 = 1 << 9
	FlagRD uint16 = 1 << 8
	FlagRA uint16 = 1 << 7
)

// OPCODE values per RFC 1035 §4.1.1.
const (
	OpcodeQuery uint16 = 0
)

// RCODE values per RFC 1035 §4.1.1.
const (
	RCodeNoError uint16 = 0
)

// Name and message size constraints.
const (
	// MaxLabelLength is the maximum length of a single DNS label per RFC 1035 §3.1.
	MaxLabelLength = 63

	// MaxNameLength is the maximum length of a name's string form per RFC 1035 §3.1.
	MaxNameLength = 255

	// MaxCompressionPointers bounds the number of pointer jumps followed while
	// decompressing a name, guarding against pointer cycles.
	MaxCompressionPointers = 256

	// CompressionMask identifies a compression pointer: the top two bits of
	// the length byte are both set.
	CompressionMask byte = 0xC0

	// MaxMessageSize is the standard DNS-over-UDP datagram ceiling (RFC
	// 1035 §4.2.1). EDNS0 size negotiation is out of scope for this
	// module, so every encoded message, unicast or mDNS, is held to it;
	// exceeding it is reported as TooLarge rather than fragmented.
	MaxMessageSize = 512

	// TransportBufferSize is the receive-side scratch buffer size. It is
	// deliberately larger than MaxMessageSize: a misbehaving or
	// non-conformant peer on the wire can still send an oversized
	// datagram, and the transport reads it whole so the codec decodes the
	// complete datagram rather than a truncated read. The decoder applies
	// no size limit of its own.
	TransportBufferSize = 9000
)

// TTL conventions for mDNS records per RFC 6762 §10.
const (
	// TTLService is the recommended TTL for records named by or contained in
	// SRV/PTR/TXT rdata.
	TTLService = 120

	// TTLHostname is the recommended TTL for address records (A/AAAA).
	TTLHostname = 4500
)

// DefaultReceiveTimeout is the transport's receive deadline when a caller
// doesn't configure its own.
const DefaultReceiveTimeout = 1 * time.Second
