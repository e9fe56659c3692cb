package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

var proxyIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// getProxyClientIP resolves the originating client address when the server
// sits behind a trusted reverse proxy. Headers carrying private or garbage
// addresses are skipped so clients cannot spoof their way past the limiter.
func getProxyClientIP(r *http.Request) string {
	for _, header := range proxyIPHeaders {
		originIP := strings.TrimSpace(r.Header.Get(header))
		if originIP == "" {
			continue
		}

		// X-Forwarded-For may hold a comma-separated chain; the first
		// entry is the original client
		originIP, _, _ = strings.Cut(originIP, ",")
		originIP = strings.TrimSpace(originIP)

		parsedIP := net.ParseIP(originIP)
		if parsedIP == nil || isPrivateIP(parsedIP) {
			continue
		}

		return originIP
	}

	// no usable proxy headers
	return getDirectClientIPValidated(r)
}

func getDirectClientIPValidated(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// r.RemoteAddr does not have a port, return as is
		ip = r.RemoteAddr
	}

	ip = strings.TrimSpace(ip)

	if net.ParseIP(ip) == nil {
		return "" // Invalid IP - let middleware handle this
	}
	return ip
}

var getPrivateIPBlocks = sync.OnceValue(func() []*net.IPNet {
	privateCIDRnets := []string{
		"127.0.0.0/8",    // IPv4 loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"::1/128",        // IPv6 loopback
		"fc00::/7",       // IPv6 unique local
		"fe80::/10",      // IPv6 link-local
	}

	blocks := make([]*net.IPNet, 0, len(privateCIDRnets))
	for _, cidr := range privateCIDRnets {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		blocks = append(blocks, ipNet)
	}

	return blocks
})

func isPrivateIP(ip net.IP) bool {
	for _, block := range getPrivateIPBlocks() {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
