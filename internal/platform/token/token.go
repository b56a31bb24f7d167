// Package token generates opaque hex tokens for invitations and
// unsubscribe links.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// InviteBytes yields a 64-character hex token for delegate invitations.
const InviteBytes = 32

// UnsubscribeBytes yields a 32-character hex token for subscription links.
const UnsubscribeBytes = 16

// Generator creates opaque tokens suitable for external references.
type Generator interface {
	NewToken(size int) (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewToken(size int) (string, error) {
	if size < 1 {
		return "", fmt.Errorf("token size must be positive")
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
