package hll_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
)

const (
	concGoroutines = 20
	concOpsPerG    = 500
)

func TestNewLocked_InvalidPrecision(t *testing.T) {
	t.Parallel()

	l, err := hll.NewLocked(0)
	require.ErrorIs(t, err, hll.ErrInvalidPrecision)
	assert.Nil(t, l)
}

func TestLocked_ConcurrentAddEstimate(t *testing.T) {
	t.Parallel()

	l, err := hll.NewLocked(defaultPrecision)
	require.NoError(t, err)

	var wg sync.WaitGroup

	wg.Add(concGoroutines)

	for g := range concGoroutines {
		go func(goroutineID int) {
			defer wg.Done()

			base := uint64(goroutineID) * uint64(concOpsPerG)

			for i := range uint64(concOpsPerG) {
				l.Add(uint64ToBytes(base + i))
			}

			// Read while others are writing.
			_ = l.Estimate()
		}(g)
	}

	wg.Wait()

	expected := float64(concGoroutines * concOpsPerG)
	relativeError := math.Abs(l.Estimate()-expected) / expected

	t.Logf("concurrent estimate=%.2f, expected=%d, relError=%.4f%%",
		l.Estimate(), int(expected), relativeError*100)
	assert.LessOrEqual(t, relativeError, accuracyMaxError)
}

func TestLocked_MatchesPlainSketch(t *testing.T) {
	t.Parallel()

	l, err := hll.NewLocked(defaultPrecision, hll.WithHasher(hll.XXHasher{}))
	require.NoError(t, err)

	plain := newSketch(t, defaultPrecision, hll.WithHasher(hll.XXHasher{}))

	for i := range cardN1K {
		l.Add(uint64ToBytes(uint64(i)))
		plain.AddUint64(uint64(i))
	}

	l.AddString("extra")
	plain.AddString("extra")

	assert.Equal(t, plain.Registers(), l.Snapshot().Registers())
	assert.Equal(t, plain.Count(), l.Count())
}

func TestLocked_SnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	l, err := hll.NewLocked(defaultPrecision)
	require.NoError(t, err)

	l.AddString("a")

	snap := l.Snapshot()
	snap.AddString("b")

	assert.Equal(t, uint64(1), l.Count())
	assert.Equal(t, uint64(2), snap.Count())
}

func TestLocked_UnionWithAndReset(t *testing.T) {
	t.Parallel()

	l, err := hll.NewLocked(defaultPrecision)
	require.NoError(t, err)

	other := filledSketch(t, defaultPrecision, 0, cardN1K)

	require.NoError(t, l.UnionWith(other))
	assert.Equal(t, other.Registers(), l.Snapshot().Registers())

	err = l.UnionWith(newSketch(t, scenarioPrecision))
	require.ErrorIs(t, err, hll.ErrPrecisionMismatch)

	l.Reset()
	assert.Equal(t, uint64(0), l.Count())
}
