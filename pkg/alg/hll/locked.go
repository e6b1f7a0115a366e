package hll

import "sync"

// Locked wraps a Sketch with a read-write mutex so several goroutines can
// ingest into one sketch. Writers are serialised; estimates share the read lock.
type Locked struct {
	mu     sync.RWMutex
	sketch *Sketch
}

// NewLocked creates a Locked sketch with the given precision and options.
func NewLocked(precision uint8, opts ...Option) (*Locked, error) {
	sk, err := New(precision, opts...)
	if err != nil {
		return nil, err
	}

	return &Locked{sketch: sk}, nil
}

// Add hashes data outside the lock and updates one register under it.
func (l *Locked) Add(data []byte) {
	hashVal := l.sketch.hasher.Sum64(data)

	l.mu.Lock()
	l.sketch.AddHash(hashVal)
	l.mu.Unlock()
}

// AddString adds the bytes of str.
func (l *Locked) AddString(str string) {
	l.Add([]byte(str))
}

// Estimate returns the current cardinality estimate.
func (l *Locked) Estimate() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sketch.Estimate()
}

// Count returns Estimate rounded to the nearest non-negative integer.
func (l *Locked) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sketch.Count()
}

// UnionWith folds other into the wrapped sketch. other must not be mutated
// concurrently by its owner.
func (l *Locked) UnionWith(other *Sketch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sketch.UnionWith(other)
}

// Snapshot returns an independent copy of the wrapped sketch.
func (l *Locked) Snapshot() *Sketch {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sketch.Clone()
}

// Reset clears all registers.
func (l *Locked) Reset() {
	l.mu.Lock()
	l.sketch.Reset()
	l.mu.Unlock()
}
