//go:build !windows

package hostinfo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quietloop/seekdns/internal/dnserr"
)

func writeResolvConf(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write resolv.conf: %v", err)
	}
	return path
}

func TestPosixResolversParsesNameserverLines(t *testing.T) {
	path := writeResolvConf(t, "# comment\nnameserver 8.8.8.8\nnameserver 2001:4860:4860::8888\nsearch example.com\n")

	p := &PosixResolvers{Path: path}
	addrs, err := p.Resolvers()
	if err != nil {
		t.Fatalf("Resolvers: %v", err)
	}
	want := []string{"8.8.8.8:53", "[2001:4860:4860::8888]:53"}
	if len(addrs) != len(want) {
		t.Fatalf("addrs = %v, want %v", addrs, want)
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %q, want %q", i, addrs[i], want[i])
		}
	}
}

func TestPosixResolversEmptyFileReturnsNoResolver(t *testing.T) {
	path := writeResolvConf(t, "# no nameservers here\nsearch example.com\n")

	p := &PosixResolvers{Path: path}
	_, err := p.Resolvers()
	if !errors.Is(err, dnserr.ErrNoResolver) {
		t.Errorf("err = %v, want ErrNoResolver", err)
	}
}

func TestPosixResolversMissingFileReturnsNoResolver(t *testing.T) {
	p := &PosixResolvers{Path: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := p.Resolvers()
	if !errors.Is(err, dnserr.ErrNoResolver) {
		t.Errorf("err = %v, want ErrNoResolver", err)
	}
}
