package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/xy-planning-network/retention"
)

// UnknownIPAddress stands in when no public address can be found.
const UnknownIPAddress = "0.0.0.0"

// IANA defined IPv4 non-public ranges beyond those netip.Addr.IsPrivate covers.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

// InjectIPAddress grabs the IP address in the *http.Request.Header
// and promotes it to *http.Request.Context under retention.IpAddrKey.
func InjectIPAddress() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetIPAddress(r.Header)
			h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), retention.IpAddrKey, ip)))
		})
	}
}

// GetIPAddress parses "X-Forwarded-For" and "X-Real-Ip" headers for the IP address
// of the client, skipping addresses from non-public ranges.
func GetIPAddress(hm http.Header) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(hm.Get(h), ",")
		// March from right to left until we get a public address:
		// the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			addr, err := netip.ParseAddr(ip)
			if err != nil || !isPublic(addr) {
				continue
			}

			return addr.String()
		}
	}

	return UnknownIPAddress
}

// clientIP returns the address in the request context,
// falling back to the connection's remote address.
func clientIP(r *http.Request) string {
	ip, _ := r.Context().Value(retention.IpAddrKey).(string)
	if ip == "" {
		ip = GetIPAddress(r.Header)
	}

	if ip != UnknownIPAddress {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}

	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}

	return true
}
