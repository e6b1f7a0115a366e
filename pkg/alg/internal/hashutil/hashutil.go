// Package hashutil provides the hash mixing primitives shared by the
// probabilistic data structures in pkg/alg.
//
// Mixing uses the splitmix64 finalizer by Vigna (2014), which provides
// full-avalanche mixing across all 64 bits. Cardinality sketches depend on
// this: the high bits select a register and the low bits feed the rank, so
// both ends of the word must be well distributed.
package hashutil

import "hash/fnv"

// Splitmix64 finalizer constants.
const (
	// MixShift1 is the first right-shift in the splitmix64 finalizer.
	MixShift1 = 30

	// MixMul1 is the first multiplier in the splitmix64 finalizer.
	MixMul1 = 0xbf58476d1ce4e5b9

	// MixShift2 is the second right-shift in the splitmix64 finalizer.
	MixShift2 = 27

	// MixMul2 is the second multiplier in the splitmix64 finalizer.
	MixMul2 = 0x94d049bb133111eb

	// MixShift3 is the third right-shift in the splitmix64 finalizer.
	MixShift3 = 31
)

// Mix64 applies the splitmix64 finalizer. It is a pure output function and
// advances no state. Zero is a fixed point.
func Mix64(v uint64) uint64 {
	v ^= v >> MixShift1
	v *= MixMul1
	v ^= v >> MixShift2
	v *= MixMul2
	v ^= v >> MixShift3

	return v
}

// FNV64a computes a 64-bit FNV-1a hash of the given data.
func FNV64a(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

// MixedFNV64a hashes data with FNV-1a and finalizes it with Mix64.
// FNV-1a alone has weak avalanche in the high bits for short inputs.
func MixedFNV64a(data []byte) uint64 {
	return Mix64(FNV64a(data))
}
