package waveform

import (
	"github.com/itohio/pwmc/pkg/hal"
	"github.com/itohio/pwmc/pkg/input"
)

// Params are the fixed generator constants.
type Params struct {
	ClockHz uint32 // PWM counter clock
	Step    uint32 // button nudge in counter ticks
}

// DefaultParams match an rp2040 running at 125 MHz.
var DefaultParams = Params{
	ClockHz: 125_000_000,
	Step:    1000,
}

// Wrap returns floor(ClockHz/freq)-1 clamped to at least 1.
func (p Params) Wrap(freq uint32) uint32 {
	if freq == 0 {
		freq = 1
	}
	q := p.ClockHz / freq
	if q < 2 {
		return 1
	}
	return q - 1
}

// Nudge applies the button adjustment to duty. Increment is applied only when
// duty+step stays below wrap, decrement only when duty is above step. The
// result is always within [0, wrap].
func (p Params) Nudge(duty, wrap uint32, inc, dec bool) uint32 {
	if inc && uint64(duty)+uint64(p.Step) < uint64(wrap) {
		duty += p.Step
	}
	if dec && duty > p.Step {
		duty -= p.Step
	}
	if duty > wrap {
		duty = wrap
	}
	return duty
}

// Parameters is what gets programmed into the PWM peripheral.
type Parameters struct {
	FrequencyHz uint32
	Wrap        uint32 // >= 1
	Duty        uint32 // 0..Wrap
}

// DutyPercent is the generated duty cycle as computed by the generator.
func (p Parameters) DutyPercent() float32 {
	if p.Wrap == 0 {
		return 0
	}
	return 100 * float32(p.Duty) / float32(p.Wrap)
}

// Generator turns operator inputs into PWM settings.
//
// Duty is not cumulative: every Compute starts from the base duty of the
// current Y sample, and the button nudge is relative to that base only.
type Generator struct {
	params Params
	rng    input.Range
	out    hal.PWM
}

// New creates a generator driving out.
func New(params Params, rng input.Range, out hal.PWM) *Generator {
	return &Generator{
		params: params,
		rng:    rng,
		out:    out,
	}
}

// Compute derives frequency, wrap and duty from one input sample.
func (g *Generator) Compute(in input.Inputs) Parameters {
	freq := g.rng.Frequency(in.X)
	wrap := g.params.Wrap(freq)
	duty := g.rng.DutyBase(in.Y, wrap)
	duty = g.params.Nudge(duty, wrap, in.Increment, in.Decrement)

	return Parameters{
		FrequencyHz: freq,
		Wrap:        wrap,
		Duty:        duty,
	}
}

// Program writes wrap and duty to the output. Both registers are written every
// call, no comparison against the previous values is made.
func (g *Generator) Program(p Parameters) {
	g.out.SetWrap(p.Wrap)
	g.out.SetLevel(p.Duty)
}

// Params returns the generator constants.
func (g *Generator) Params() Params {
	return g.params
}
