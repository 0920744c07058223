// Package token produces the two token kinds the auth flows rely on:
// unguessable single-use tokens for email verification and password reset,
// and signed stateless session tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultBytes is the entropy of verification and reset tokens.
const DefaultBytes = 20

// RandomHex returns n cryptographically random bytes encoded as hex.
// Non-positive n falls back to DefaultBytes.
func RandomHex(n int) string {
	if n <= 0 {
		n = DefaultBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
