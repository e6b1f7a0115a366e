package hll

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/internal/hashutil"
)

// Hasher names accepted by HasherByName.
const (
	HasherFNV    = "fnv"
	HasherXX     = "xxhash"
	HasherSHA256 = "sha256"
)

// ErrUnknownHasher is returned by HasherByName for an unrecognised name.
var ErrUnknownHasher = errors.New("hll: unknown hasher")

// Hasher reduces an item to a uniformly distributed 64-bit value.
// Implementations must be deterministic.
type Hasher interface {
	Sum64(data []byte) uint64
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc func(data []byte) uint64

// Sum64 calls f(data).
func (f HasherFunc) Sum64(data []byte) uint64 {
	return f(data)
}

// FNVHasher is FNV-1a finalized with splitmix64. It is the default.
type FNVHasher struct{}

// Sum64 implements Hasher.
func (FNVHasher) Sum64(data []byte) uint64 {
	return hashutil.MixedFNV64a(data)
}

// XXHasher is xxHash64 with seed 0.
type XXHasher struct{}

// Sum64 implements Hasher.
func (XXHasher) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// SHA256Hasher takes the first 8 bytes of SHA-256. It is slower, but keeps
// register placement unpredictable for adversarial inputs.
type SHA256Hasher struct{}

// Sum64 implements Hasher.
func (SHA256Hasher) Sum64(data []byte) uint64 {
	sum := sha256.Sum256(data)

	return binary.BigEndian.Uint64(sum[:uint64Bytes])
}

// HasherByName resolves one of HasherFNV, HasherXX or HasherSHA256.
// The empty name selects the default.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", HasherFNV:
		return FNVHasher{}, nil
	case HasherXX:
		return XXHasher{}, nil
	case HasherSHA256:
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}
