// Package hll provides a HyperLogLog-family cardinality sketch.
//
// A Sketch approximates the number of distinct items added to it using a
// fixed array of 2^p one-byte registers, without storing the items. Each
// item is hashed once to 64 bits: the top p bits select a register and the
// remaining 64-p bits determine the rank (1 + leading zeros) that the
// register keeps as a running maximum.
//
// Sketches of equal precision combine losslessly: the per-register maximum of
// two sketches is the sketch of the union of their inputs. Intersection sizes
// are approximated by inclusion-exclusion over three estimates.
//
// The default estimator is linear counting, m * ln(m / V) over the V empty
// registers, which reports 0 once no register is empty. A bias-corrected
// LogLog-Beta estimator can be selected with [WithEstimator].
//
// A Sketch is not safe for concurrent mutation. Callers that ingest from
// several goroutines must serialise Add calls themselves or use [Locked].
package hll

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"
)

const (
	// MinPrecision is the smallest accepted precision (2 registers).
	MinPrecision = 1

	// MaxPrecision is the largest accepted precision. The bucket index is
	// kept within 32 bits.
	MaxPrecision = 32

	// hashBits is the width of the hash every item is reduced to.
	hashBits = 64

	uint32Bytes = 4
	uint64Bytes = 8
)

var (
	// ErrInvalidPrecision is returned when precision is outside [MinPrecision, MaxPrecision].
	ErrInvalidPrecision = errors.New("hll: precision must be in [1, 32]")

	// ErrPrecisionMismatch is returned when combining sketches with different precisions.
	ErrPrecisionMismatch = errors.New("hll: cannot combine sketches with different precisions")

	// ErrNilSketch is returned when a nil sketch is passed as an operand.
	ErrNilSketch = errors.New("hll: sketch must not be nil")
)

// Sketch is a fixed-size HyperLogLog register array.
type Sketch struct {
	registers []uint8
	hasher    Hasher
	estimator Estimator
	precision uint8
}

// Option configures a Sketch at construction time.
type Option func(*Sketch)

// WithHasher sets the hash function used by Add. A nil hasher keeps the default.
func WithHasher(h Hasher) Option {
	return func(s *Sketch) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithEstimator sets the cardinality estimator. A nil estimator keeps the default.
func WithEstimator(e Estimator) Option {
	return func(s *Sketch) {
		if e != nil {
			s.estimator = e
		}
	}
}

// New creates an empty sketch with 2^precision registers.
// Precision must be in [MinPrecision, MaxPrecision].
func New(precision uint8, opts ...Option) (*Sketch, error) {
	if precision < MinPrecision || precision > MaxPrecision {
		return nil, ErrInvalidPrecision
	}

	s := &Sketch{
		registers: make([]uint8, uint(1)<<precision),
		hasher:    FNVHasher{},
		estimator: LinearCounting{},
		precision: precision,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Precision returns the number of hash bits used to select a register.
func (s *Sketch) Precision() uint8 {
	return s.precision
}

// RegisterCount returns the number of registers (2^p).
func (s *Sketch) RegisterCount() uint {
	return uint(1) << s.precision
}

// Hasher returns the hash function the sketch was built with.
func (s *Sketch) Hasher() Hasher {
	return s.hasher
}

// Estimator returns the cardinality estimator the sketch was built with.
func (s *Sketch) Estimator() Estimator {
	return s.estimator
}

// Add hashes data and folds it into the sketch. Nil and empty data are
// valid items and hash identically.
func (s *Sketch) Add(data []byte) {
	s.AddHash(s.hasher.Sum64(data))
}

// AddString adds the bytes of str.
func (s *Sketch) AddString(str string) {
	s.Add([]byte(str))
}

// AddUint32 adds v encoded as 4 big-endian bytes.
func (s *Sketch) AddUint32(v uint32) {
	var buf [uint32Bytes]byte

	binary.BigEndian.PutUint32(buf[:], v)
	s.Add(buf[:])
}

// AddUint64 adds v encoded as 8 big-endian bytes.
func (s *Sketch) AddUint64(v uint64) {
	var buf [uint64Bytes]byte

	binary.BigEndian.PutUint64(buf[:], v)
	s.Add(buf[:])
}

// AddHash folds an already computed 64-bit hash into the sketch, bypassing
// the configured hasher.
func (s *Sketch) AddHash(hashVal uint64) {
	idx, rank := s.locate(hashVal)

	if rank > s.registers[idx] {
		s.registers[idx] = rank
	}
}

// locate splits a hash into its register index (top p bits) and rank.
// The rank is 1 + the leading zeros of the remaining 64-p bits; an all-zero
// remainder yields the maximum rank 64-p+1.
func (s *Sketch) locate(hashVal uint64) (idx uint64, rank uint8) {
	remaining := hashBits - uint(s.precision)
	idx = hashVal >> remaining

	mask := (uint64(1) << remaining) - 1
	w := hashVal & mask

	rank = uint8(remaining-uint(bits.Len64(w))) + 1

	return idx, rank
}

// Estimate returns the estimated number of distinct items added so far.
// It does not modify the sketch.
func (s *Sketch) Estimate() float64 {
	return s.estimator.Estimate(s.registers)
}

// Count returns Estimate rounded to the nearest non-negative integer.
func (s *Sketch) Count() uint64 {
	return uint64(math.Round(math.Max(s.Estimate(), 0)))
}

// ZeroRegisters returns how many registers no item has hashed into yet.
func (s *Sketch) ZeroRegisters() int {
	return countZeroRegisters(s.registers)
}

// Registers returns a copy of the register array.
func (s *Sketch) Registers() []uint8 {
	regs := make([]uint8, len(s.registers))
	copy(regs, s.registers)

	return regs
}

// Reset clears all registers without reallocating the underlying array.
func (s *Sketch) Reset() {
	clear(s.registers)
}
