package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites r.RemoteAddr to the client address a trusted proxy
// reports in X-Real-IP or X-Forwarded-For. Requests from any other peer keep
// their connection address, so a client cannot pick its own rate-limit key.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies := ParseProxies(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client, ok := proxies.forwardedFor(r); ok {
				r.RemoteAddr = client.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Proxies is a set of trusted proxy networks.
type Proxies []netip.Prefix

// ParseProxies accepts CIDRs and bare addresses ("127.0.0.1" is 127.0.0.1/32).
// Invalid entries are logged and skipped.
func ParseProxies(entries []string) Proxies {
	var out Proxies
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(e); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", e)
	}
	return out
}

// Trusts reports whether addr falls inside one of the networks.
func (p Proxies) Trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// forwardedFor returns the client address reported by a trusted peer.
// X-Real-IP wins over the first X-Forwarded-For hop; a malformed value
// is ignored rather than falling through to the other header.
func (p Proxies) forwardedFor(r *http.Request) (netip.Addr, bool) {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok || !p.Trusts(peer) {
		return netip.Addr{}, false
	}

	if v := r.Header.Get("X-Real-IP"); v != "" {
		addr, err := netip.ParseAddr(strings.TrimSpace(v))
		return addr, err == nil
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	addr, err := netip.ParseAddr(strings.TrimSpace(first))
	return addr, err == nil
}

// peerAddr parses "host:port" or a bare address.
func peerAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr(), true
	}
	addr, err := netip.ParseAddr(remote)
	return addr, err == nil
}
