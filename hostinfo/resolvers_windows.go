//go:build windows

package hostinfo

import "github.com/quietloop/seekdns/internal/dnserr"

// WindowsResolvers enumerates system nameservers via the OS adapter-info
// API. That enumeration is an external collaborator this module only
// contracts against (see SystemResolvers); this type exists so the
// platform build has a default provider to construct, and returns
// ErrNoResolver until wired to a real adapter-info source. Embedders on
// Windows are expected to supply their own SystemResolvers backed by
// GetAdaptersAddresses or an equivalent, exactly as the interface is
// designed to allow.
type WindowsResolvers struct{}

// NewSystemResolvers returns the default SystemResolvers provider for this
// platform.
func NewSystemResolvers() SystemResolvers {
	return &WindowsResolvers{}
}

// Resolvers implements SystemResolvers.
func (*WindowsResolvers) Resolvers() ([]string, error) {
	return nil, dnserr.ErrNoResolver
}
