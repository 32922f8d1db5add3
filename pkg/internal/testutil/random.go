package testutil

// ScriptedRand is a random.Source whose draws come from fixed queues,
// letting tests force specific rule and template choices. Exhausted queues
// return zero, which means "first element" for picks and "hit" for any
// positive probability.
type ScriptedRand struct {
	Floats []float64
	Ints   []int
	fi, ii int
}

// Float64 returns the next queued float, or 0 when exhausted.
func (s *ScriptedRand) Float64() float64 {
	if s.fi >= len(s.Floats) {
		return 0
	}
	v := s.Floats[s.fi]
	s.fi++
	return v
}

// Intn returns the next queued int modulo n, or 0 when exhausted.
func (s *ScriptedRand) Intn(n int) int {
	if s.ii >= len(s.Ints) {
		return 0
	}
	v := s.Ints[s.ii]
	s.ii++
	return v % n
}
