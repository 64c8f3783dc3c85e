// Package signing verifies Meta's X-Hub-Signature-256 header on inbound
// webhook deliveries.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const prefix = "sha256="

// Sign computes the header value Meta would send for payload, for use in
// tests and local tooling.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the X-Hub-Signature-256 header value against the
// HMAC-SHA256 of the payload. Comparison is constant time.
func Verify(secret string, payload []byte, header string) bool {
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	received, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(received, mac.Sum(nil))
}
