package agent

import (
	"net"
	"testing"
	"time"

	"github.com/quietloop/seekdns/hostinfo"
	"github.com/quietloop/seekdns/protocol"
	"github.com/quietloop/seekdns/wire"
)

type fixedLocalAddresses []hostinfo.InterfaceAddress

func (f fixedLocalAddresses) Addresses() ([]hostinfo.InterfaceAddress, error) { return f, nil }

func newTestAgent(addrs []hostinfo.InterfaceAddress) *Agent {
	return &Agent{
		service:      Service{Name: "_hello._tcp.local", Port: 8080},
		hostname:     "host",
		instanceName: "host._hello._tcp.local",
		targetHost:   "host.local",
		ttl:          600 * time.Second,
		localAddrs:   fixedLocalAddresses(addrs),
		peers:        make(map[string]*peerState),
		cap:          defaultPeerCapacity,
	}
}

func TestBuildResponseSkipsLoopbackAndDownInterfaces(t *testing.T) {
	a := newTestAgent([]hostinfo.InterfaceAddress{
		{Name: "lo0", Family: hostinfo.IPv4, Addr: net.ParseIP("127.0.0.1"), Up: true, Loopback: true},
		{Name: "eth0", Family: hostinfo.IPv4, Addr: net.ParseIP("192.168.1.5"), Up: true, Loopback: false},
		{Name: "eth1", Family: hostinfo.IPv4, Addr: net.ParseIP("192.168.1.9"), Up: false, Loopback: false},
		{Name: "eth0", Family: hostinfo.IPv6, Addr: net.ParseIP("fe80::1"), Up: true, Loopback: false},
	})

	msg, err := a.buildResponse(hostinfo.IPv4)
	if err != nil {
		t.Fatalf("buildResponse: %v", err)
	}

	if len(msg.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(msg.Answers))
	}
	ptr, ok := msg.Answers[0].Data.(wire.PTR)
	if !ok || ptr.Target != a.instanceName {
		t.Errorf("PTR target = %+v, want %q", msg.Answers[0].Data, a.instanceName)
	}

	// SRV + exactly one A record (eth0 IPv4); the loopback, the down
	// interface, and the IPv6 address must all be excluded.
	if len(msg.Additionals) != 2 {
		t.Fatalf("additionals = %d, want 2: %+v", len(msg.Additionals), msg.Additionals)
	}
	srv, ok := msg.Additionals[0].Data.(wire.SRV)
	if !ok || srv.Port != a.service.Port || srv.Target != a.targetHost {
		t.Errorf("SRV = %+v", msg.Additionals[0].Data)
	}
	ip, ok := msg.Additionals[1].Data.(wire.A)
	if !ok || !ip.Addr.Equal(net.ParseIP("192.168.1.5")) {
		t.Errorf("A = %+v, want 192.168.1.5", msg.Additionals[1].Data)
	}

	// The Additional count in the header must equal the number of records
	// actually written; EncodeMessage stamps it from the slice length.
	encoded, err := wire.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := wire.DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if int(decoded.Header.ARCount) != len(msg.Additionals) {
		t.Errorf("ARCount = %d, want %d", decoded.Header.ARCount, len(msg.Additionals))
	}
}

func TestBuildResponseIPv6Family(t *testing.T) {
	a := newTestAgent([]hostinfo.InterfaceAddress{
		{Name: "eth0", Family: hostinfo.IPv4, Addr: net.ParseIP("192.168.1.5"), Up: true},
		{Name: "eth0", Family: hostinfo.IPv6, Addr: net.ParseIP("fe80::1"), Up: true},
	})

	msg, err := a.buildResponse(hostinfo.IPv6)
	if err != nil {
		t.Fatalf("buildResponse: %v", err)
	}
	if len(msg.Additionals) != 2 {
		t.Fatalf("additionals = %d, want 2", len(msg.Additionals))
	}
	aaaa, ok := msg.Additionals[1].Data.(wire.AAAA)
	if !ok || !aaaa.Addr.Equal(net.ParseIP("fe80::1")) {
		t.Errorf("AAAA = %+v", msg.Additionals[1].Data)
	}
}

func TestHandleReplyAssemblesPeerAcrossRecordTypes(t *testing.T) {
	a := newTestAgent(nil)

	ptrMsg := &wire.Message{
		Header: wire.Header{Flags: protocol.FlagQR},
		Answers: []wire.Record{
			{Name: a.service.Name, Type: protocol.TypePTR, Class: protocol.ClassIN, TTL: 120,
				Data: wire.PTR{Target: "peer1._hello._tcp.local"}},
		},
	}
	if peer := a.handleReply(ptrMsg); peer != nil {
		t.Errorf("PTR alone should not yet surface a peer, got %+v", peer)
	}

	srvMsg := &wire.Message{
		Header: wire.Header{Flags: protocol.FlagQR},
		Additionals: []wire.Record{
			{Name: "peer1._hello._tcp.local", Type: protocol.TypeSRV, Class: protocol.ClassIN, TTL: 120,
				Data: wire.SRV{Priority: 0, Weight: 0, Port: 9000, Target: "peer1.local"}},
		},
	}
	if peer := a.handleReply(srvMsg); peer != nil {
		t.Errorf("SRV alone (no address yet) should not surface a peer, got %+v", peer)
	}

	addrMsg := &wire.Message{
		Header: wire.Header{Flags: protocol.FlagQR},
		Additionals: []wire.Record{
			{Name: "peer1.local", Type: protocol.TypeA, Class: protocol.ClassIN, TTL: 120,
				Data: wire.A{Addr: net.ParseIP("10.0.0.5")}},
		},
	}
	peer := a.handleReply(addrMsg)
	if peer == nil {
		t.Fatal("expected peer once an address record arrives")
	}
	if peer.Name != "peer1._hello._tcp.local" {
		t.Errorf("peer name = %q", peer.Name)
	}
	if len(peer.Addresses) != 1 || peer.Addresses[0].Port != 9000 || !peer.Addresses[0].IP.Equal(net.ParseIP("10.0.0.5")) {
		t.Errorf("peer addresses = %+v", peer.Addresses)
	}
}

func TestHandleReplyFiltersSelf(t *testing.T) {
	a := newTestAgent(nil)

	msg := &wire.Message{
		Header: wire.Header{Flags: protocol.FlagQR},
		Answers: []wire.Record{
			{Name: a.service.Name, Type: protocol.TypePTR, Class: protocol.ClassIN, TTL: 120,
				Data: wire.PTR{Target: a.instanceName}},
		},
	}
	if peer := a.handleReply(msg); peer != nil {
		t.Errorf("expected self-announcement to be filtered, got %+v", peer)
	}
	if len(a.peers) != 0 {
		t.Errorf("self instance should never be tracked, peers = %+v", a.peers)
	}
}

func TestPeerExpiry(t *testing.T) {
	a := newTestAgent(nil)
	a.peers["peer1"] = &peerState{
		name:        "peer1",
		ttl:         1 * time.Second,
		addrs:       []Address{{IP: net.ParseIP("10.0.0.1"), Port: 1234}},
		refreshedAt: time.Now().Add(-2 * time.Second),
	}

	if got := a.Peers(); len(got) != 0 {
		t.Errorf("expired peer still returned: %+v", got)
	}
	if _, ok := a.peers["peer1"]; ok {
		t.Error("expired peer should have been pruned from the table")
	}
}

func TestPeerZeroTTLNeverExpires(t *testing.T) {
	a := newTestAgent(nil)
	a.peers["peer1"] = &peerState{
		name:        "peer1",
		ttl:         0,
		addrs:       []Address{{IP: net.ParseIP("10.0.0.1"), Port: 1234}},
		refreshedAt: time.Now().Add(-1 * time.Hour),
	}

	got := a.Peers()
	if len(got) != 1 {
		t.Fatalf("peers = %+v, want 1 with zero TTL retained", got)
	}
}

func TestPeerTableEvictsOldestAtCapacity(t *testing.T) {
	a := newTestAgent(nil)
	a.cap = 2

	a.peerFor("a").refreshedAt = time.Now().Add(-3 * time.Second)
	a.peerFor("b").refreshedAt = time.Now().Add(-2 * time.Second)
	a.peerFor("c").refreshedAt = time.Now().Add(-1 * time.Second)

	if len(a.peers) != 2 {
		t.Fatalf("peers = %d, want 2 after eviction", len(a.peers))
	}
	if _, ok := a.peers["a"]; ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := a.peers["c"]; !ok {
		t.Error("most recent entry should survive")
	}
}
