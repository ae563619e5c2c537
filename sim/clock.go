package sim

import "time"

// Stepper converts elapsed wall time into a number of fixed-interval ticks.
// At most maxTicks are returned per call; any backlog beyond that is dropped
// so a slow frame does not snowball into longer and longer catch-ups.
type Stepper struct {
	interval time.Duration
	maxTicks int
	acc      time.Duration
}

// NewStepper creates a stepper for the given tick interval.
func NewStepper(interval time.Duration, maxTicks int) *Stepper {
	if maxTicks < 1 {
		maxTicks = 1
	}
	return &Stepper{interval: interval, maxTicks: maxTicks}
}

// Advance adds elapsed time and returns how many ticks are due.
func (s *Stepper) Advance(elapsed time.Duration) int {
	if elapsed > 0 {
		s.acc += elapsed
	}
	n := int(s.acc / s.interval)
	if n > s.maxTicks {
		n = s.maxTicks
		s.acc = 0
		return n
	}
	s.acc -= time.Duration(n) * s.interval
	return n
}

// Reset discards accumulated time.
func (s *Stepper) Reset() {
	s.acc = 0
}
