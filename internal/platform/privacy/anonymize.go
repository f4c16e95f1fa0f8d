// Package privacy provides utilities for handling personally identifiable information (PII).
//
// Share codes authorize access to a person's immigration record, so raw codes
// never appear in logs, traces, or audit events; HashShareCode produces a
// stable correlation token instead. IP addresses in request logs are truncated
// so no single host can be identified.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// HashShareCode returns a short SHA-256 digest of the share code for safe
// logging and trace correlation. Case-insensitive so the same code always
// hashes identically regardless of how the caller typed it.
func HashShareCode(code string) string {
	if code == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToUpper(code)))
	return hex.EncodeToString(hash[:8]) // First 8 bytes for brevity
}

// AnonymizeAddr anonymizes a host:port remote address, tolerating a bare IP.
func AnonymizeAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return AnonymizeIP(host)
}

// AnonymizeIP truncates an IP address to remove the host-identifying portion.
//
// For IPv4 addresses, the last octet is zeroed (e.g., "192.168.1.47" -> "192.168.1.0"),
// effectively masking to a /24 network.
//
// For IPv6 addresses, only the /48 prefix is kept
// (e.g., "2001:db8:85a3::8a2e:370:7334" -> "2001:db8:85a3::").
//
// Returns "invalid" for unparseable IP addresses, and "unknown" for empty strings.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	// Check for IPv4 (including IPv4-mapped IPv6)
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	// IPv6: keep only the first 6 bytes (/48 prefix)
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
