package token

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// FormReservedChars never appear in generated passwords.
const FormReservedChars = "=&%+#?"

// DefaultPasswordLength is the length of generated bootstrap passwords.
const DefaultPasswordLength = 16

// PasswordAlphabet is the character set for generated passwords. It omits
// the characters that carry meaning in a query string or form body
// (see FormReservedChars), so a password can be sent unescaped.
const PasswordAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!\"$'()*,-./:;<>@[\\]^_`{|}~"

// GeneratePassword returns a random password of length characters drawn
// uniformly from PasswordAlphabet.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("token: password length must be positive")
	}
	max := big.NewInt(int64(len(PasswordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = PasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
