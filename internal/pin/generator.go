// Package pin produces short numeric lease codes. PINs are operator-facing
// convenience codes, not secrets; uniqueness is enforced at the session layer.
package pin

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultLength is the PIN length used when callers do not request one.
const DefaultLength = 6

// ErrInvalidLength is returned by Generate for lengths below 1.
var ErrInvalidLength = errors.New("pin length must be at least 1")

// Generator draws decimal digits from its own random source. Safe for
// concurrent use; the source is guarded by a mutex.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded from the wall clock.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource returns a Generator backed by src. Tests inject a
// fixed seed for deterministic output.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Generate returns length independently drawn digits in '0'..'9'.
func (g *Generator) Generate(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	var sb strings.Builder
	sb.Grow(length)
	g.mu.Lock()
	for i := 0; i < length; i++ {
		sb.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	g.mu.Unlock()
	return sb.String(), nil
}
