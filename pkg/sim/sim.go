// Package sim provides software peripherals for tests and the host mock.
// All types are safe for concurrent use.
package sim

import (
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/itohio/pwmc/pkg/hal"
)

var (
	_ hal.Clock      = (*Clock)(nil)
	_ hal.Analog     = (*Analog)(nil)
	_ hal.Pin        = (*Pin)(nil)
	_ hal.PWM        = (*PWM)(nil)
	_ hal.EdgeSource = (*Signal)(nil)
)

// Clock is a virtual microsecond clock. It only moves when advanced.
type Clock struct {
	now atomic.Uint32
}

// NewClock creates a clock starting at start.
func NewClock(start uint32) *Clock {
	c := &Clock{}
	c.now.Store(start)
	return c
}

func (c *Clock) Now() uint32 {
	return c.now.Load()
}

// Advance moves the clock forward by us and returns the new time.
func (c *Clock) Advance(us uint32) uint32 {
	return c.now.Add(us)
}

// Analog is an analog channel holding a settable raw value.
type Analog struct {
	v atomic.Uint32
}

// NewAnalog creates a channel reading raw.
func NewAnalog(raw uint16) *Analog {
	a := &Analog{}
	a.Set(raw)
	return a
}

func (a *Analog) Get() uint16 {
	return uint16(a.v.Load())
}

func (a *Analog) Set(raw uint16) {
	a.v.Store(uint32(raw))
}

// Pin is a digital input with a pull-up: it reads high unless pressed.
type Pin struct {
	pressed atomic.Bool
}

// NewButton creates a released active-low button.
func NewButton() *Pin {
	return &Pin{}
}

func (p *Pin) Get() bool {
	return !p.pressed.Load()
}

// Press pulls the pin low (true) or releases it (false).
func (p *Pin) Press(pressed bool) {
	p.pressed.Store(pressed)
}

// PWM records what was programmed into it.
type PWM struct {
	mu     sync.RWMutex
	wrap   uint32
	level  uint32
	writes int
}

func (p *PWM) SetWrap(wrap uint32) {
	p.mu.Lock()
	p.wrap = wrap
	p.writes++
	p.mu.Unlock()
}

func (p *PWM) SetLevel(level uint32) {
	p.mu.Lock()
	p.level = level
	p.writes++
	p.mu.Unlock()
}

// State returns the programmed wrap and level.
func (p *PWM) State() (wrap, level uint32) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.wrap, p.level
}

// Writes returns the number of register writes so far.
func (p *PWM) Writes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes
}

// Waveform returns the output period and high time in microseconds for a
// counter clocked at clockHz. Times are rounded down to whole microseconds.
func (p *PWM) Waveform(clockHz uint32) (periodUs, highUs uint32) {
	wrap, level := p.State()
	if clockHz == 0 {
		return 0, 0
	}
	ticks := uint64(wrap) + 1
	if uint64(level) > ticks {
		level = uint32(ticks)
	}
	periodUs = uint32(ticks * 1_000_000 / uint64(clockHz))
	highUs = uint32(uint64(level) * 1_000_000 / uint64(clockHz))
	return periodUs, highUs
}

// HighTime converts a duty percentage into a high time for periodUs.
func HighTime(periodUs uint32, dutyPercent float32) uint32 {
	if dutyPercent <= 0 {
		return 0
	}
	if dutyPercent >= 100 {
		return periodUs
	}
	return uint32(math32.Floor(float32(periodUs)*dutyPercent/100 + 0.5))
}

// PeriodUs converts a frequency into a period in microseconds.
func PeriodUs(frequencyHz float32) uint32 {
	if frequencyHz <= 0 {
		return 0
	}
	return uint32(math32.Floor(1_000_000/frequencyHz + 0.5))
}

// Triangle maps phase in [0, 1) onto a 0..1..0 ramp.
func Triangle(phase float32) float32 {
	phase -= math32.Floor(phase)
	if phase < 0.5 {
		return 2 * phase
	}
	return 2 - 2*phase
}
