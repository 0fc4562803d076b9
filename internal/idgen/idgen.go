// Package idgen generates the random identifiers fraudguard hands out
// for records and requests. IDs come from crypto/rand; a failure there
// means the process has no usable entropy source and we panic.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return b
}

// New returns a UUID-shaped random identifier, 36 characters in the
// familiar 8-4-4-4-12 hex layout. Used for fraud record IDs.
func New() string {
	b := randomBytes(16)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// WithPrefix returns prefix followed by 24 random hex characters,
// e.g. WithPrefix("req_") for request IDs.
func WithPrefix(prefix string) string {
	return prefix + hex.EncodeToString(randomBytes(12))
}
