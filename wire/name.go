package wire

import (
	"strings"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

// decodeName parses a DNS name starting at offset within the full message
// buffer msg, following RFC 1035 §4.1.4 compression pointers. Every pointer
// is resolved against msg itself, never against a sub-slice: a name buried
// in a record's RDATA can legally point back into the Question section,
// and slicing the buffer before decoding (as some hand-rolled decoders do)
// silently breaks that case by shifting every offset.
func decodeName(msg []byte, offset int) (name string, newOffset int, err error) {
	if offset < 0 {
		return "", 0, dnserr.NewWireError("decode name", offset, "offset out of bounds", dnserr.ErrMalformed)
	}
	if offset >= len(msg) {
		return "", 0, dnserr.NewWireError("decode name", offset, "unexpected end of message", dnserr.ErrUnexpectedEOF)
	}

	var labels []string
	pos := offset
	jumps := 0
	jumped := false

	for {
		if pos >= len(msg) {
			return "", 0, dnserr.NewWireError("decode name", pos, "unexpected end of message", dnserr.ErrUnexpectedEOF)
		}

		length := msg[pos]

		if (length & protocol.CompressionMask) == protocol.CompressionMask {
			if pos+1 >= len(msg) {
				return "", 0, dnserr.NewWireError("decode name", pos, "truncated compression pointer", dnserr.ErrUnexpectedEOF)
			}

			pointerOffset := int(msg[pos]&0x3F)<<8 | int(msg[pos+1])
			if pointerOffset >= pos {
				return "", 0, dnserr.NewWireError("decode name", pos, "compression pointer does not point backwards", dnserr.ErrMalformed)
			}

			if !jumped {
				newOffset = pos + 2
				jumped = true
			}

			pos = pointerOffset
			jumps++
			if jumps > protocol.MaxCompressionPointers {
				return "", 0, dnserr.NewWireError("decode name", pos, "too many compression pointer jumps", dnserr.ErrMalformed)
			}
			continue
		}

		if length == 0 {
			if !jumped {
				newOffset = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return "", 0, dnserr.NewWireError("decode name", pos, "label exceeds maximum length", dnserr.ErrMalformed)
		}

		if pos+1+int(length) > len(msg) {
			return "", 0, dnserr.NewWireError("decode name", pos, "truncated label", dnserr.ErrUnexpectedEOF)
		}

		labels = append(labels, string(msg[pos+1:pos+1+int(length)]))
		pos += 1 + int(length)
	}

	name = strings.Join(labels, ".")
	if len(name) > protocol.MaxNameLength {
		return "", 0, dnserr.NewWireError("decode name", offset, "name exceeds maximum length", dnserr.ErrMalformed)
	}

	return name, newOffset, nil
}

// encodeName writes name in wire format (length-prefixed labels terminated
// by a zero-length label). This module never emits compression pointers of
// its own: RFC 6762 §18.14 makes compression on the wire a SHOULD, and the
// encoder favors a simple, auditable byte layout over chasing the last few
// bytes of savings a querying client never needs.
func encodeName(name string) ([]byte, error) {
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")
	if labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	encoded := make([]byte, 0, protocol.MaxNameLength)
	for _, label := range labels {
		if len(label) == 0 {
			return nil, &dnserr.ValidationError{Field: "name", Value: name, Msg: "empty label"}
		}
		if len(label) > protocol.MaxLabelLength {
			return nil, &dnserr.ValidationError{Field: "name", Value: name, Msg: "label exceeds 63 bytes"}
		}
		for i := 0; i < len(label); i++ {
			ch := label[i]
			valid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') || ch == '-' || ch == '_'
			if !valid {
				return nil, &dnserr.ValidationError{Field: "name", Value: name, Msg: "invalid character in label"}
			}
		}
		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, label...)
	}
	encoded = append(encoded, 0)

	if len(encoded) > protocol.MaxNameLength {
		return nil, &dnserr.ValidationError{Field: "name", Value: name, Msg: "encoded name exceeds 255 bytes"}
	}
	return encoded, nil
}

// encodeDNSSDName encodes a name that may begin with a DNS-SD service
// instance label. It first tries the ordinary strict encoding; if that
// fails, the leading label is re-encoded as an instance label via
// EncodeServiceInstanceName. This is the path record names and PTR
// targets take, since those are exactly the places an instance name
// appears on the wire.
func encodeDNSSDName(name string) ([]byte, error) {
	enc, err := encodeName(name)
	if err == nil {
		return enc, nil
	}
	dot := strings.IndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return nil, err
	}
	return EncodeServiceInstanceName(name[:dot], name[dot+1:])
}

// EncodeServiceInstanceName encodes a DNS-SD service instance name per RFC
// 6763 §4.3: the instance portion is a single label that, unlike an
// ordinary DNS label, may contain spaces and arbitrary UTF-8 text, with the
// service type and domain following it as normally-validated labels.
func EncodeServiceInstanceName(instance, serviceType string) ([]byte, error) {
	if instance == "" {
		return nil, &dnserr.ValidationError{Field: "instance", Value: instance, Msg: "instance name cannot be empty"}
	}
	if len(instance) > protocol.MaxLabelLength {
		return nil, &dnserr.ValidationError{Field: "instance", Value: instance, Msg: "instance name exceeds 63 bytes"}
	}

	encoded := make([]byte, 0, protocol.MaxNameLength)
	encoded = append(encoded, byte(len(instance)))
	encoded = append(encoded, instance...)

	rest, err := encodeName(serviceType)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 && rest[len(rest)-1] == 0 {
		rest = rest[:len(rest)-1]
	}
	encoded = append(encoded, rest...)
	encoded = append(encoded, 0)

	if len(encoded) > protocol.MaxNameLength {
		return nil, &dnserr.ValidationError{Field: "instance", Value: instance, Msg: "encoded name exceeds 255 bytes"}
	}
	return encoded, nil
}
