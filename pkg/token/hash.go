package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLength is the number of hex characters kept.
const fingerprintLength = 12

// Fingerprint returns a short, stable, non-reversible tag for secret.
//
// Used in log lines so operators can correlate a key across records.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])[:fingerprintLength]
}
