package probe

import (
	"sync/atomic"

	"github.com/itohio/pwmc/pkg/hal"
)

var _ hal.EdgeHandler = (*Meter)(nil)

const (
	stageIdle   = iota // no rising edge seen yet
	stageArmed         // one rising edge seen, no full interval
	stagePrimed        // at least one rising-to-rising interval measured
)

// Snapshot is a consistent copy of the measurement state taken at a single
// instant from the interrupt handler's point of view.
type Snapshot struct {
	PeriodUs uint32 // last rising-to-rising interval
	HighUs   uint32 // last rising-to-falling interval
	Edges    uint32 // edges observed since start or Reset, wraps
	Valid    bool   // false until one full period was observed
}

// FrequencyHz returns the measured frequency or 0 when no period is known.
func (s Snapshot) FrequencyHz() uint32 {
	if s.PeriodUs == 0 {
		return 0
	}
	return 1_000_000 / s.PeriodUs
}

// DutyPercent returns the measured duty cycle or 0 when no period is known.
func (s Snapshot) DutyPercent() float32 {
	if s.PeriodUs == 0 {
		return 0
	}
	return 100 * float32(s.HighUs) / float32(s.PeriodUs)
}

// Meter measures period and high time of a digital signal from its edges.
//
// HandleEdge is the only writer and is expected to run in interrupt context.
// Snapshot is the reader. The state is published with a sequence counter:
// the writer makes the counter odd while updating and even when done, the
// reader retries until it copied all fields under the same even counter.
// Neither side blocks and the writer never waits for the reader.
type Meter struct {
	seq atomic.Uint32

	last   atomic.Uint32
	period atomic.Uint32
	high   atomic.Uint32
	edges  atomic.Uint32
	stage  atomic.Uint32
}

// New creates a Meter that reports nothing until it is primed.
func New() *Meter {
	return &Meter{}
}

// HandleEdge records one edge. Time differences use unsigned arithmetic, so
// a single wrap of the microsecond clock between two edges is harmless.
//
//go:noinline
func (m *Meter) HandleEdge(now uint32, rising bool) {
	stage := m.stage.Load()
	if !rising && stage == stageIdle {
		// no reference rising edge yet
		return
	}

	m.seq.Add(1)
	if rising {
		if stage != stageIdle {
			m.period.Store(now - m.last.Load())
			m.stage.Store(stagePrimed)
		} else {
			m.stage.Store(stageArmed)
		}
		m.last.Store(now)
	} else {
		m.high.Store(now - m.last.Load())
	}
	m.edges.Store(m.edges.Load() + 1)
	m.seq.Add(1)
}

// Snapshot returns the latest measurement. Period and high time are zero
// until the meter observed a full rising-to-rising interval.
func (m *Meter) Snapshot() Snapshot {
	for {
		s1 := m.seq.Load()
		if s1&1 != 0 {
			continue
		}
		snap := Snapshot{
			PeriodUs: m.period.Load(),
			HighUs:   m.high.Load(),
			Edges:    m.edges.Load(),
			Valid:    m.stage.Load() == stagePrimed,
		}
		if m.seq.Load() != s1 {
			continue
		}
		if !snap.Valid {
			snap.PeriodUs = 0
			snap.HighUs = 0
		}
		return snap
	}
}

// Reset drops all measurements and waits for a new full period. It must not
// race with HandleEdge; detach or mask the edge source first.
func (m *Meter) Reset() {
	m.seq.Add(1)
	m.last.Store(0)
	m.period.Store(0)
	m.high.Store(0)
	m.edges.Store(0)
	m.stage.Store(stageIdle)
	m.seq.Add(1)
}
