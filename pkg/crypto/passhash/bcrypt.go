package passhash

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the bcrypt work factor for new hashes.
const DefaultBcryptCost = bcrypt.DefaultCost

// BcryptMaxPasswordBytes is the longest password bcrypt accepts.
const BcryptMaxPasswordBytes = 72

// Bcrypt hashes passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out-of-range costs fall back to the default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Bcrypt{cost: cost}
}

// Name implements Hasher.
func (b *Bcrypt) Name() string { return AlgorithmBcrypt }

// Hash implements Hasher. Passwords over BcryptMaxPasswordBytes yield
// ErrPasswordTooLong.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > BcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify implements Hasher. It accepts any supported encoding.
func (b *Bcrypt) Verify(password, encoded string) (bool, error) {
	return Verify(password, encoded)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func verifyBcrypt(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}
