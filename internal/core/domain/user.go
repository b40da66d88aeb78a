// Package domain defines the core domain models for branchweb.
package domain

import "strings"

// RootUserName is the account created when no user store exists yet.
const RootUserName = "root"

// MaxUserNameLength bounds user names to keep the user file readable.
const MaxUserNameLength = 128

// User is a registered account.
type User struct {
	// Name is the unique, case-sensitive login name.
	Name string `json:"name"`

	// PasswordHash is the encoded salted hash. Plaintext is never stored.
	PasswordHash string `json:"-"`
}

// NewUserFromHash restores a user from a persisted hash.
func NewUserFromHash(name, passwordHash string) (*User, error) {
	if err := ValidateUserName(name); err != nil {
		return nil, err
	}
	return &User{Name: name, PasswordHash: passwordHash}, nil
}

// ValidateUserName checks that name can be stored as a name=hash line.
func ValidateUserName(name string) error {
	switch {
	case name == "":
		return ErrInvalidUserName.WithDetails("name is empty")
	case len(name) > MaxUserNameLength:
		return ErrInvalidUserName.WithDetails("name exceeds 128 characters")
	case strings.ContainsAny(name, "=\r\n"):
		return ErrInvalidUserName.WithDetails("name contains '=' or a line break")
	case strings.HasPrefix(name, "#"):
		return ErrInvalidUserName.WithDetails("name starts with '#'")
	}
	return nil
}
