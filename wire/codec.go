package wire

import (
	"encoding/binary"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

const headerSize = 12

// EncodeMessage serializes m to wire format. It does not emit compression
// pointers (see encodeName); every section is written label-by-label.
func EncodeMessage(m *Message) ([]byte, error) {
	m.Header.QDCount = uint16(len(m.Questions))
	m.Header.ANCount = uint16(len(m.Answers))
	m.Header.NSCount = uint16(len(m.Authorities))
	m.Header.ARCount = uint16(len(m.Additionals))

	buf := make([]byte, headerSize, 256)
	binary.BigEndian.PutUint16(buf[0:2], m.Header.ID)
	binary.BigEndian.PutUint16(buf[2:4], m.Header.Flags)
	binary.BigEndian.PutUint16(buf[4:6], m.Header.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], m.Header.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], m.Header.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], m.Header.ARCount)

	for _, q := range m.Questions {
		enc, err := encodeQuestion(q)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}

	for _, sec := range [][]Record{m.Answers, m.Authorities, m.Additionals} {
		for _, rr := range sec {
			enc, err := encodeRecord(rr)
			if err != nil {
				return nil, err
			}
			buf = append(buf, enc...)
		}
	}

	if len(buf) > protocol.MaxMessageSize {
		return nil, dnserr.NewWireError("encode message", len(buf), "message exceeds maximum size", dnserr.ErrTooLarge)
	}
	return buf, nil
}

func encodeQuestion(q Question) ([]byte, error) {
	// A question may name a specific service instance (an SRV or TXT
	// lookup), so the instance-label fallback applies here too.
	name, err := encodeDNSSDName(q.Name)
	if err != nil {
		return nil, err
	}
	class := uint16(q.Class)
	if q.Unicast {
		class |= uint16(protocol.CacheFlushBit)
	}
	buf := make([]byte, 0, len(name)+4)
	buf = append(buf, name...)
	buf = append(buf, byte(q.Type>>8), byte(q.Type))
	buf = append(buf, byte(class>>8), byte(class))
	return buf, nil
}

func encodeRecord(rr Record) ([]byte, error) {
	// SRV and TXT records are named by the service instance, whose leading
	// label may contain spaces and UTF-8 text an ordinary label may not.
	name, err := encodeDNSSDName(rr.Name)
	if err != nil {
		return nil, err
	}

	rdata, err := rr.Data.encode()
	if err != nil {
		return nil, err
	}
	if len(rdata) > 0xFFFF {
		return nil, dnserr.NewWireError("encode record", 0, "rdata exceeds 65535 bytes", dnserr.ErrTooLarge)
	}

	class := uint16(rr.Class)
	if rr.CacheFlush {
		class |= uint16(protocol.CacheFlushBit)
	}

	buf := make([]byte, 0, len(name)+10+len(rdata))
	buf = append(buf, name...)
	buf = append(buf, byte(rr.Type>>8), byte(rr.Type))
	buf = append(buf, byte(class>>8), byte(class))
	buf = append(buf, byte(rr.TTL>>24), byte(rr.TTL>>16), byte(rr.TTL>>8), byte(rr.TTL))
	buf = append(buf, byte(len(rdata)>>8), byte(len(rdata)))
	buf = append(buf, rdata...)
	return buf, nil
}

// DecodeMessage parses buf as a DNS message.
func DecodeMessage(buf []byte) (*Message, error) {
	if len(buf) < headerSize {
		return nil, dnserr.NewWireError("decode message", 0, "message shorter than header", dnserr.ErrUnexpectedEOF)
	}

	m := &Message{}
	m.Header.ID = binary.BigEndian.Uint16(buf[0:2])
	m.Header.Flags = binary.BigEndian.Uint16(buf[2:4])
	m.Header.QDCount = binary.BigEndian.Uint16(buf[4:6])
	m.Header.ANCount = binary.BigEndian.Uint16(buf[6:8])
	m.Header.NSCount = binary.BigEndian.Uint16(buf[8:10])
	m.Header.ARCount = binary.BigEndian.Uint16(buf[10:12])

	if m.Header.Truncated() {
		return nil, dnserr.NewWireError("decode message", 2, "TC bit set", dnserr.ErrTruncated)
	}

	offset := headerSize

	questions := make([]Question, 0, m.Header.QDCount)
	for i := 0; i < int(m.Header.QDCount); i++ {
		q, next, err := decodeQuestion(buf, offset)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		offset = next
	}
	m.Questions = questions

	for _, n := range []struct {
		count int
		dst   *[]Record
	}{
		{int(m.Header.ANCount), &m.Answers},
		{int(m.Header.NSCount), &m.Authorities},
		{int(m.Header.ARCount), &m.Additionals},
	} {
		recs := make([]Record, 0, n.count)
		for i := 0; i < n.count; i++ {
			rr, next, err := decodeRecord(buf, offset)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rr)
			offset = next
		}
		*n.dst = recs
	}

	return m, nil
}

func decodeQuestion(msg []byte, offset int) (Question, int, error) {
	name, offset, err := decodeName(msg, offset)
	if err != nil {
		return Question{}, 0, err
	}
	if offset+4 > len(msg) {
		return Question{}, 0, dnserr.NewWireError("decode question", offset, "truncated question", dnserr.ErrUnexpectedEOF)
	}
	qtype := getUint16(msg[offset : offset+2])
	rawClass := getUint16(msg[offset+2 : offset+4])
	offset += 4

	return Question{
		Name:    name,
		Type:    protocol.RecordType(qtype),
		Class:   protocol.Class(rawClass).Plain(),
		Unicast: rawClass&uint16(protocol.CacheFlushBit) != 0,
	}, offset, nil
}

func decodeRecord(msg []byte, offset int) (Record, int, error) {
	name, offset, err := decodeName(msg, offset)
	if err != nil {
		return Record{}, 0, err
	}
	if offset+10 > len(msg) {
		return Record{}, 0, dnserr.NewWireError("decode record", offset, "truncated record header", dnserr.ErrUnexpectedEOF)
	}

	rtype := protocol.RecordType(getUint16(msg[offset : offset+2]))
	rawClass := protocol.Class(getUint16(msg[offset+2 : offset+4]))
	ttl := uint32(msg[offset+4])<<24 | uint32(msg[offset+5])<<16 | uint32(msg[offset+6])<<8 | uint32(msg[offset+7])
	rdlength := int(getUint16(msg[offset+8 : offset+10]))
	offset += 10

	data, err := decodeRDATA(msg, rtype, offset, rdlength)
	if err != nil {
		return Record{}, 0, err
	}
	offset += rdlength

	return Record{
		Name:       name,
		Type:       rtype,
		Class:      rawClass.Plain(),
		RawClass:   rawClass,
		CacheFlush: rawClass&protocol.CacheFlushBit != 0,
		TTL:        ttl,
		Data:       data,
	}, offset, nil
}
