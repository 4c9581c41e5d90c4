package sim

import (
	"sync"

	"github.com/itohio/pwmc/pkg/hal"
)

// Signal synthesizes the edges of a rectangular wave in virtual time and
// feeds them to the attached handler, the way a pin interrupt would.
type Signal struct {
	mu      sync.Mutex
	handler hal.EdgeHandler

	running bool
	high    bool
	next    uint32
}

// Attach registers the edge handler.
func (s *Signal) Attach(h hal.EdgeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
	return nil
}

// Run emits every edge with a timestamp in [from, to) for a wave of periodUs
// with highUs high time. A zero period, zero high time or high time spanning
// the whole period is a constant level: no edges are produced and the wave
// restarts with a rising edge at the next call that has a proper waveform.
// It returns the number of edges emitted.
func (s *Signal) Run(from, to, periodUs, highUs uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler == nil || periodUs == 0 || highUs == 0 || highUs >= periodUs {
		s.running = false
		return 0
	}
	if !s.running || int32(s.next-from) < 0 {
		s.running = true
		s.high = false
		s.next = from
	}

	n := 0
	for int32(to-s.next) > 0 {
		if !s.high {
			s.handler.HandleEdge(s.next, true)
			s.next += highUs
		} else {
			s.handler.HandleEdge(s.next, false)
			s.next += periodUs - highUs
		}
		s.high = !s.high
		n++
	}

	return n
}
