package validator

import (
	"net"
	"strings"
)

// UnknownClient keys requests whose address cannot be parsed
const UnknownClient = "unknown"

// IsValidIP reports whether ip parses as IPv4 or IPv6
func IsValidIP(ip string) bool {
	if ip == "" {
		return false
	}
	return net.ParseIP(ip) != nil
}

// NormalizeIP strips an IPv6 zone, e.g. fe80::1%eth0 -> fe80::1
func NormalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	return strings.TrimSpace(ip)
}

// ClientKey returns the normalized address, or UnknownClient when it is not an IP
func ClientKey(ip string) string {
	normalized := NormalizeIP(ip)
	if IsValidIP(normalized) {
		return normalized
	}
	return UnknownClient
}
