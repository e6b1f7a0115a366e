package hll

// Locate exposes the index/rank split for tests.
func (s *Sketch) Locate(hashVal uint64) (idx uint64, rank uint8) {
	return s.locate(hashVal)
}

// Alpha exposes the alpha_m constant for tests.
func Alpha(regCount int) float64 {
	return alpha(regCount)
}
