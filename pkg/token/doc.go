// Package token provides random secret generation and fingerprinting.
//
// Secrets:
//
//   - GeneratePassword: printable passwords over letters, digits and punctuation
//   - GenerateBytes: raw random bytes (salts)
//
// Fingerprints:
//
//   - Fingerprint: short SHA-256 prefix used to mention a key in logs
//     without revealing it
//
// All randomness comes from crypto/rand.
package token
