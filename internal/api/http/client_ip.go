package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/logger"
)

// ipResolver decides which address a request comes from. X-Forwarded-For is
// only read when the peer is a trusted proxy.
type ipResolver struct {
	trusted []netip.Prefix
}

func newIPResolver(trustedProxies []string) *ipResolver {
	prefixes, err := config.ParseTrustedProxies(trustedProxies)
	if err != nil {
		logger.Warn("Ignoring trusted proxies", "error", err)
		prefixes = nil
	}
	return &ipResolver{trusted: prefixes}
}

func (res *ipResolver) trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range res.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP walks X-Forwarded-For from the right, skipping trusted hops, and
// returns the first address no trusted proxy vouches for.
func (res *ipResolver) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !res.trusts(addr) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		hopAddr, err := netip.ParseAddr(hop)
		if err != nil {
			break
		}
		client = hopAddr.Unmap().String()
		if !res.trusts(hopAddr) {
			break
		}
	}
	return client
}
