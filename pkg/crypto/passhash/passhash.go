package passhash

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names accepted by New.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var (
	// ErrInvalidHash indicates the hash format is invalid.
	ErrInvalidHash = errors.New("passhash: invalid hash format")

	// ErrIncompatibleVersion indicates the hash version is not supported.
	ErrIncompatibleVersion = errors.New("passhash: incompatible argon2 version")

	// ErrUnknownAlgorithm indicates an algorithm name New does not know.
	ErrUnknownAlgorithm = errors.New("passhash: unknown algorithm")

	// ErrPasswordTooLong indicates a password the algorithm cannot hash.
	ErrPasswordTooLong = errors.New("passhash: password too long")
)

// Hasher produces encoded password hashes.
type Hasher interface {
	// Hash derives a new salted hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches encoded.
	Verify(password, encoded string) (bool, error)

	// Name returns the algorithm name.
	Name() string
}

// New returns the Hasher for algorithm with default parameters.
func New(algorithm string) (Hasher, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmArgon2id, "":
		return NewArgon2id(DefaultArgon2Params), nil
	case AlgorithmBcrypt:
		return NewBcrypt(DefaultBcryptCost), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// Verify checks password against an encoded hash of either supported kind.
func Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	case isBcrypt(encoded):
		return verifyBcrypt(password, encoded)
	default:
		return false, ErrInvalidHash
	}
}
