// Package requestmeta derives non-identifying client metadata from HTTP
// requests for audit correlation. The fingerprint groups checks made from the
// same kind of client without identifying a person or device.
package requestmeta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type fingerprintKey struct{}

type requestIDKey struct{}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request correlation ID, or "" when unset.
// Domain services use this to enrich audit events without depending on the
// HTTP layer.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware computes a client fingerprint from the User-Agent header and
// stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := Fingerprint(r.Header.Get("User-Agent"))
		ctx := context.WithValue(r.Context(), fingerprintKey{}, fp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the client fingerprint, or "" when none was computed.
func FromContext(ctx context.Context) string {
	if fp, ok := ctx.Value(fingerprintKey{}).(string); ok {
		return fp
	}
	return ""
}

// Fingerprint hashes coarse browser attributes (family, major version, OS,
// form factor) into a stable token.
//
// Note: Does NOT include IP address (too volatile; handled separately by
// request-log anonymization).
func Fingerprint(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		parts := strings.Split(version, ".")
		if len(parts) > 0 && parts[0] != "" {
			majorVersion = parts[0]
		}
	}

	os := ua.OS()
	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os = strings.ToLower(strings.TrimSpace(os))
	if os == "" {
		os = "unknown"
	}

	data := fmt.Sprintf("%s|%s|%s|%s", browser, majorVersion, os, platform)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
