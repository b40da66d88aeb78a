// Package domain defines the core domain models for branchweb.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultKeyTimeout is the idle time after which an unused key expires.
const DefaultKeyTimeout = 900 * time.Second

// SessionKey is an authentication key handed out on successful login.
//
// Keys are owned by the key store. Anything else only keeps the ID.
type SessionKey struct {
	// ID is the opaque key identifier (random UUID text).
	ID string `json:"id"`

	// LastSeen is the time of issuance or of the last successful validation.
	LastSeen time.Time `json:"last_seen"`
}

// NewKeyID returns a fresh random key ID.
func NewKeyID() string {
	return uuid.NewString()
}

// Expired reports whether the key has been idle for longer than timeout.
func (k SessionKey) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(k.LastSeen) > timeout
}

// Refresh moves LastSeen to now.
func (k *SessionKey) Refresh(now time.Time) {
	k.LastSeen = now
}
