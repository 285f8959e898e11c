package wire

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/quietloop/seekdns/internal/dnserr"
	"github.com/quietloop/seekdns/protocol"
)

func TestEncodeDecodeMessageRoundtrip(t *testing.T) {
	in := &Message{
		Header: Header{ID: 0x1234, Flags: protocol.FlagQR | protocol.FlagAA},
		Questions: []Question{
			{Name: "printer.local", Type: protocol.TypeA, Class: protocol.ClassIN},
		},
		Answers: []Record{
			{Name: "printer.local", Type: protocol.TypeA, Class: protocol.ClassIN, TTL: 120,
				Data: A{Addr: net.ParseIP("192.168.1.5")}},
			{Name: "printer.local", Type: protocol.TypeAAAA, Class: protocol.ClassIN, TTL: 120,
				Data: AAAA{Addr: net.ParseIP("fe80::1")}},
			{Name: "_http._tcp.local", Type: protocol.TypeSRV, Class: protocol.ClassIN, TTL: 120,
				Data: SRV{Priority: 0, Weight: 0, Port: 631, Target: "printer.local"}},
			{Name: "_http._tcp.local", Type: protocol.TypeTXT, Class: protocol.ClassIN, TTL: 120,
				Data: TXT{Strings: []string{"path=/", "version=1.0"}}},
		},
	}

	buf, err := EncodeMessage(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Header.ID != in.Header.ID {
		t.Errorf("ID = %#x, want %#x", out.Header.ID, in.Header.ID)
	}
	if !out.Header.IsResponse() || !out.Header.Authoritative() {
		t.Errorf("flags not preserved: %#x", out.Header.Flags)
	}
	if len(out.Questions) != 1 || out.Questions[0].Name != "printer.local" {
		t.Fatalf("questions mismatch: %+v", out.Questions)
	}
	if len(out.Answers) != 4 {
		t.Fatalf("answers = %d, want 4", len(out.Answers))
	}

	a, ok := out.Answers[0].Data.(A)
	if !ok || !a.Addr.Equal(net.ParseIP("192.168.1.5")) {
		t.Errorf("A record mismatch: %+v", out.Answers[0].Data)
	}
	aaaa, ok := out.Answers[1].Data.(AAAA)
	if !ok || !aaaa.Addr.Equal(net.ParseIP("fe80::1")) {
		t.Errorf("AAAA record mismatch: %+v", out.Answers[1].Data)
	}
	srv, ok := out.Answers[2].Data.(SRV)
	if !ok || srv.Port != 631 || srv.Target != "printer.local" {
		t.Errorf("SRV record mismatch: %+v", out.Answers[2].Data)
	}
	txt, ok := out.Answers[3].Data.(TXT)
	if !ok || len(txt.Strings) != 2 || txt.Strings[1] != "version=1.0" {
		t.Errorf("TXT record mismatch: %+v", out.Answers[3].Data)
	}
}

func TestDecodeRDATANameUsesAbsoluteOffsets(t *testing.T) {
	// Hand-build a message where a PTR record's RDATA is an instance label
	// followed by a compression pointer back to the question's name: the
	// bug this guards against is a decoder that resolves RDATA pointers
	// against a copy of just the RDATA bytes instead of the full message.
	var buf []byte
	buf = append(buf, 0, 0)    // ID
	buf = append(buf, 0x80, 0) // flags: QR=1
	buf = append(buf, 0, 1)    // QDCOUNT
	buf = append(buf, 0, 1)    // ANCOUNT
	buf = append(buf, 0, 0)    // NSCOUNT
	buf = append(buf, 0, 0)    // ARCOUNT

	// offset 12: question name "_http._tcp.local"
	for _, label := range []string{"_http", "_tcp", "local"} {
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)
	buf = append(buf, 0, 12) // QTYPE PTR
	buf = append(buf, 0, 1)  // QCLASS IN

	// Answer: name is a pointer to offset 12, RDATA is the instance label
	// "My Printer" (spaces are legal in a DNS-SD instance label) followed
	// by a pointer to offset 12 again.
	buf = append(buf, 0xC0, 0x0C)
	buf = append(buf, 0, 12) // TYPE PTR
	buf = append(buf, 0, 1)  // CLASS IN
	buf = append(buf, 0, 0, 0, 120)
	instance := "My Printer"
	buf = append(buf, 0, byte(1+len(instance)+2)) // RDLENGTH
	buf = append(buf, byte(len(instance)))
	buf = append(buf, instance...)
	buf = append(buf, 0xC0, 0x0C)

	out, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ptr, ok := out.Answers[0].Data.(PTR)
	if !ok || ptr.Target != "My Printer._http._tcp.local" {
		t.Errorf("PTR target = %+v, want My Printer._http._tcp.local", out.Answers[0].Data)
	}
	if out.Answers[0].Name != "_http._tcp.local" {
		t.Errorf("answer name = %q", out.Answers[0].Name)
	}
}

func TestDecodeMessageShortBufferIsUnexpectedEOF(t *testing.T) {
	_, err := DecodeMessage([]byte{0, 1, 2})
	if !errors.Is(err, dnserr.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestDecodeMessageTCBitIsTruncated(t *testing.T) {
	msg := &Message{Header: Header{Flags: protocol.FlagTC}}
	buf, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = DecodeMessage(buf)
	if !errors.Is(err, dnserr.ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeNameCompressionLoop(t *testing.T) {
	// Two labels that point at each other forever.
	msg := []byte{
		0xC0, 0x02, // offset 0: pointer to offset 2
		0xC0, 0x00, // offset 2: pointer to offset 0
	}
	_, _, err := decodeName(msg, 0)
	if !errors.Is(err, dnserr.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestEncodeNameRejectsEmptyLabel(t *testing.T) {
	_, err := encodeName("foo..local")
	if err == nil {
		t.Fatal("expected error for empty label")
	}
}

func TestTXTOuterLengthIsSumOfStrings(t *testing.T) {
	rr := TXT{Strings: []string{"hello=world", "foo=bar"}}
	data, err := rr.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := append([]byte{0x0b}, "hello=world"...)
	want = append(want, 0x07)
	want = append(want, "foo=bar"...)
	if len(data) != 20 || !bytes.Equal(data, want) {
		t.Errorf("data = % x, want % x", data, want)
	}

	decoded, err := decodeRDATA(data, protocol.TypeTXT, 0, len(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	txt, ok := decoded.(TXT)
	if !ok || len(txt.Strings) != 2 || txt.Strings[0] != "hello=world" || txt.Strings[1] != "foo=bar" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestSRVRDLengthCoversFixedFieldsPlusTarget(t *testing.T) {
	rr := SRV{Priority: 0, Weight: 0, Port: 8080, Target: "host.local"}
	data, err := rr.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Three u16s plus the target name: each label length-prefixed plus the
	// zero terminator, so len("host.local") + 2 + 6.
	if want := len("host.local") + 2 + 6; len(data) != want {
		t.Errorf("len(data) = %d, want %d", len(data), want)
	}

	decoded, err := decodeRDATA(data, protocol.TypeSRV, 0, len(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	srv, ok := decoded.(SRV)
	if !ok || srv.Port != 8080 || srv.Target != "host.local" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestCacheFlushBitMaskedOnCompareButPreserved(t *testing.T) {
	msg := &Message{
		Header: Header{Flags: protocol.FlagQR},
		Answers: []Record{
			{Name: "host.local", Type: protocol.TypeA, Class: protocol.ClassIN, CacheFlush: true, TTL: 120,
				Data: A{Addr: net.ParseIP("10.0.0.1")}},
		},
	}
	buf, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rr := out.Answers[0]
	if rr.Class != protocol.ClassIN {
		t.Errorf("Class = %v, want masked ClassIN", rr.Class)
	}
	if !rr.CacheFlush || rr.RawClass.Plain() != protocol.ClassIN {
		t.Errorf("cache-flush bit not preserved: %+v", rr)
	}
}

func TestInstanceNameRecordsEncodeAndRoundtrip(t *testing.T) {
	// A DNS-SD response names SRV/TXT records by the service instance and
	// points PTR targets at it; the instance label may contain spaces, so
	// both paths must fall back to instance-label encoding rather than
	// rejecting the name outright.
	in := &Message{
		Header: Header{Flags: protocol.FlagQR},
		Answers: []Record{
			{Name: "_http._tcp.local", Type: protocol.TypePTR, Class: protocol.ClassIN, TTL: 120,
				Data: PTR{Target: "My Printer._http._tcp.local"}},
		},
		Additionals: []Record{
			{Name: "My Printer._http._tcp.local", Type: protocol.TypeSRV, Class: protocol.ClassIN, TTL: 120,
				Data: SRV{Priority: 0, Weight: 0, Port: 631, Target: "printer.local"}},
		},
	}

	buf, err := EncodeMessage(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	ptr, ok := out.Answers[0].Data.(PTR)
	if !ok || ptr.Target != "My Printer._http._tcp.local" {
		t.Errorf("PTR target = %+v", out.Answers[0].Data)
	}
	if out.Additionals[0].Name != "My Printer._http._tcp.local" {
		t.Errorf("SRV record name = %q", out.Additionals[0].Name)
	}
	srv, ok := out.Additionals[0].Data.(SRV)
	if !ok || srv.Port != 631 || srv.Target != "printer.local" {
		t.Errorf("SRV = %+v", out.Additionals[0].Data)
	}
}

func TestEncodeServiceInstanceNameAllowsSpaces(t *testing.T) {
	enc, err := EncodeServiceInstanceName("Living Room Printer", "_http._tcp.local")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	name, _, err := decodeName(enc, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name != "Living Room Printer._http._tcp.local" {
		t.Errorf("name = %q", name)
	}
}
