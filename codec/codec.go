// Package codec digests raw consent tokens for storage and generates the raw
// tokens themselves. The two responsibilities stay in separate types so the
// persistence layer only ever handles digests.
package codec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/goliatone/go-consent/pkg/types"
)

const rawTokenBytes = 32

// Hasher computes SHA-256 digests of raw tokens. It is deterministic and has
// no state; the zero value is ready to use.
type Hasher struct{}

var _ types.TokenHasher = (*Hasher)(nil)

// Hash returns the lowercase hex SHA-256 digest of the raw token.
func (Hasher) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Source generates URL-safe raw tokens from crypto/rand. Each token carries
// 256 bits of entropy, comfortably above the 128-bit floor verification
// links require.
type Source struct{}

var _ types.TokenSource = (*Source)(nil)

// Generate returns a fresh raw token.
func (Source) Generate() (string, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
