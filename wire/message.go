// Package wire implements the RFC 1035 DNS message codec this module's
// resolver and agent build on: header bit-packing, label-compressed name
// decoding, and typed record data for the A/AAAA/PTR/SRV/TXT families plus
// an opaque fallback for anything else.
package wire

import "github.com/quietloop/seekdns/protocol"

// Header is the 12-byte DNS message header per RFC 1035 §4.1.1. Flags is
// kept as the raw bit-packed word rather than exploded into a struct of
// bools: the accessor methods below do the bit arithmetic on demand, which
// keeps Encode/Decode a straight big-endian write/read of five uint16s and
// one uint16 flag word instead of a lossy struct-to-bits translation layer.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsQuery reports whether the QR bit is clear.
func (h Header) IsQuery() bool { return h.Flags&protocol.FlagQR == 0 }

// IsResponse reports whether the QR bit is set.
func (h Header) IsResponse() bool { return h.Flags&protocol.FlagQR != 0 }

// Opcode extracts bits 11-14 of Flags.
func (h Header) Opcode() uint16 { return (h.Flags >> 11) & 0x0F }

// RCode extracts bits 0-3 of Flags.
func (h Header) RCode() uint16 { return h.Flags & 0x0F }

// Truncated reports whether the TC bit is set.
func (h Header) Truncated() bool { return h.Flags&protocol.FlagTC != 0 }

// Authoritative reports whether the AA bit is set.
func (h Header) Authoritative() bool { return h.Flags&protocol.FlagAA != 0 }

// SetFlag sets or clears a single flag bit in place.
func (h *Header) SetFlag(bit uint16, v bool) {
	if v {
		h.Flags |= bit
	} else {
		h.Flags &^= bit
	}
}

// Question is a single entry of the Question section per RFC 1035 §4.1.2.
type Question struct {
	Name  string
	Type  protocol.RecordType
	Class protocol.Class

	// Unicast requests the QU bit (top bit of Class) on an mDNS query per
	// RFC 6762 §5.4, asking the responder to reply by unicast.
	Unicast bool
}

// Record is a resource record appearing in the Answer, Authority or
// Additional section per RFC 1035 §4.1.3.
type Record struct {
	Name string
	Type protocol.RecordType

	// Class is the plain (cache-flush-bit-masked) class, almost always
	// ClassIN. RawClass preserves the bit as received so a caller that
	// wants to re-emit the record faithfully still can, even though no
	// operation in this module currently needs that roundtrip.
	Class      protocol.Class
	RawClass   protocol.Class
	CacheFlush bool

	TTL  uint32
	Data RecordData
}

// Message is a complete DNS message: header plus the four sections.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}
