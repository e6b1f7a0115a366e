package hll

// compatible reports whether other can be combined with s.
func (s *Sketch) compatible(other *Sketch) error {
	if other == nil {
		return ErrNilSketch
	}

	if s.precision != other.precision {
		return ErrPrecisionMismatch
	}

	return nil
}

// Merge returns a new sketch holding the union of s and other: every
// register is the maximum of the two inputs. Neither input is modified.
// The result keeps the hasher and estimator of s.
func (s *Sketch) Merge(other *Sketch) (*Sketch, error) {
	err := s.compatible(other)
	if err != nil {
		return nil, err
	}

	merged := s.Clone()
	mergeRegisters(merged.registers, other.registers)

	return merged, nil
}

// UnionWith folds other into s in place by taking the element-wise maximum
// of registers. Only s is modified.
func (s *Sketch) UnionWith(other *Sketch) error {
	err := s.compatible(other)
	if err != nil {
		return err
	}

	mergeRegisters(s.registers, other.registers)

	return nil
}

// Similarity estimates the size of the intersection of the item sets behind
// s and other as |A| + |B| - |A ∪ B|. Each term is an independent estimate,
// so the result can be negative for near-disjoint sets. It is not clamped.
func (s *Sketch) Similarity(other *Sketch) (float64, error) {
	union, err := s.Merge(other)
	if err != nil {
		return 0, err
	}

	return s.Estimate() + other.Estimate() - union.Estimate(), nil
}

// Clone creates a deep copy of the sketch with independent register storage.
func (s *Sketch) Clone() *Sketch {
	return &Sketch{
		registers: s.Registers(),
		hasher:    s.hasher,
		estimator: s.estimator,
		precision: s.precision,
	}
}

func mergeRegisters(dst, src []uint8) {
	for i, val := range src {
		if val > dst[i] {
			dst[i] = val
		}
	}
}
