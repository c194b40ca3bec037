package utils

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDGenerator hands out identifiers for requests and connections.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7, falling back to a random UUIDv4.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// Token returns a random UUIDv4 without dashes. The random bits come from
// crypto/rand.
func (g *UUIDGenerator) Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
