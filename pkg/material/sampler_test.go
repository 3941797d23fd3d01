package material

// sequenceSampler replays a fixed sequence of values, cycling when exhausted
type sequenceSampler struct {
	values []float64
	next   int
}

func (s *sequenceSampler) Get1D() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// panicSampler fails the test if any random number is drawn
type panicSampler struct{}

func (panicSampler) Get1D() float64 {
	panic("unexpected random draw")
}
