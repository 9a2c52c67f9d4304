// Package deck provides the randomness used to deal roles: a pluggable
// Source and an unbiased in-place shuffle.
package deck

import (
	"crypto/rand"
	"math/big"
)

// Source produces uniformly distributed integers in [0, n).
type Source interface {
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics if n <= 0 or if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("deck: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("deck: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// FixedSource replays a scripted sequence of values, clamped into [0, n).
// Once the sequence is exhausted it keeps returning 0. Intended for tests.
type FixedSource struct {
	values []int
	pos    int
}

// NewFixedSource returns a FixedSource that yields values in order.
func NewFixedSource(values ...int) *FixedSource {
	return &FixedSource{values: values}
}

// Intn returns the next scripted value modulo n.
func (f *FixedSource) Intn(n int) int {
	if n <= 0 {
		panic("deck: Intn called with n <= 0")
	}
	if f.pos >= len(f.values) {
		return 0
	}
	v := f.values[f.pos]
	f.pos++
	if v < 0 {
		v = -v
	}
	return v % n
}
