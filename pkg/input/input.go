package input

import (
	"github.com/itohio/pwmc/pkg/hal"
)

// Range maps raw analog samples onto generator targets.
type Range struct {
	MinHz     uint32 // frequency at raw 0
	MaxHz     uint32 // frequency at raw FullScale
	FullScale uint16 // largest raw sample, 4095 for a 12-bit converter
}

// DefaultRange is the joystick mapping: 50 Hz .. 10 kHz over a 12-bit ADC.
var DefaultRange = Range{
	MinHz:     50,
	MaxHz:     10_000,
	FullScale: 4095,
}

// Frequency maps raw onto [MinHz, MaxHz] with floor division. The mapping is
// monotonic; samples above FullScale are treated as FullScale.
func (r Range) Frequency(raw uint16) uint32 {
	raw = r.clamp(raw)
	if r.FullScale == 0 || r.MaxHz <= r.MinHz {
		return r.MinHz
	}
	return r.MinHz + uint32(raw)*(r.MaxHz-r.MinHz)/uint32(r.FullScale)
}

// DutyBase maps raw onto [0, wrap]. The product is taken in 64 bits since
// raw*wrap exceeds 32 bits at low frequencies.
func (r Range) DutyBase(raw uint16, wrap uint32) uint32 {
	raw = r.clamp(raw)
	if r.FullScale == 0 {
		return 0
	}
	return uint32(uint64(raw) * uint64(wrap) / uint64(r.FullScale))
}

func (r Range) clamp(raw uint16) uint16 {
	if raw > r.FullScale {
		return r.FullScale
	}
	return raw
}

// Inputs is one sample of the operator controls.
type Inputs struct {
	X         uint16 // frequency axis
	Y         uint16 // duty axis
	Increment bool   // increment button held
	Decrement bool   // decrement button held
}

// Sampler reads the joystick axes and the two nudge buttons.
// Buttons are active-low: a pressed button reads as logic 0.
type Sampler struct {
	x, y     hal.Analog
	inc, dec hal.Pin
}

// NewSampler creates a sampler over already configured peripherals.
func NewSampler(x, y hal.Analog, inc, dec hal.Pin) *Sampler {
	return &Sampler{
		x:   x,
		y:   y,
		inc: inc,
		dec: dec,
	}
}

// Sample reads all four inputs. Buttons are sampled level-wise every call,
// a held button therefore reads as pressed on every cycle.
func (s *Sampler) Sample() Inputs {
	return Inputs{
		X:         s.x.Get(),
		Y:         s.y.Get(),
		Increment: !s.inc.Get(),
		Decrement: !s.dec.Get(),
	}
}
