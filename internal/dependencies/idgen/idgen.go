package idgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// CodeAlphabet avoids characters that are easily confused when read aloud (0/O, 1/I)
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generator produces entity identifiers and invite codes; it can be mocked for testing
type Generator interface {
	// NewID returns a new identifier with the given prefix. IDs from one
	// generator sort in creation order.
	NewID(prefix string) string

	// Code returns a random code of the given length drawn from CodeAlphabet
	Code(length int) string
}

// UUIDGenerator issues time-ordered UUIDv7 identifiers
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns prefix followed by a UUIDv7
func (g *UUIDGenerator) NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the system random source fails
		id = uuid.New()
	}
	return prefix + id.String()
}

// Code generates a cryptographically random code
func (g *UUIDGenerator) Code(length int) string {
	if length <= 0 {
		return ""
	}
	limit := big.NewInt(int64(len(CodeAlphabet)))
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			n = big.NewInt(0)
		}
		result[i] = CodeAlphabet[n.Int64()]
	}
	return string(result)
}
