package waveform

import (
	"testing"

	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		freq uint32
		want uint32
	}{
		{name: "50 Hz", freq: 50, want: 2499999},
		{name: "1 kHz", freq: 1000, want: 124999},
		{name: "10 kHz", freq: 10000, want: 12499},
		{name: "clock frequency clamps", freq: 125_000_000, want: 1},
		{name: "above clock clamps", freq: 200_000_000, want: 1},
		{name: "half clock", freq: 62_500_000, want: 1},
		{name: "third of clock", freq: 41_666_667, want: 1},
		{name: "zero frequency", freq: 0, want: 124_999_999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultParams.Wrap(tt.freq))
		})
	}
}

func TestWrap_AtLeastOneOverInputRange(t *testing.T) {
	for freq := uint32(50); freq <= 10000; freq++ {
		if !assert.GreaterOrEqual(t, DefaultParams.Wrap(freq), uint32(1), "freq=%d", freq) {
			return
		}
	}
}

func TestNudge(t *testing.T) {
	p := DefaultParams

	tests := []struct {
		name     string
		duty     uint32
		wrap     uint32
		inc, dec bool
		want     uint32
	}{
		{name: "no buttons", duty: 6249, wrap: 12499, want: 6249},
		{name: "increment", duty: 6249, wrap: 12499, inc: true, want: 7249},
		{name: "decrement", duty: 6249, wrap: 12499, dec: true, want: 5249},
		{name: "both cancel", duty: 6249, wrap: 12499, inc: true, dec: true, want: 6249},
		{name: "increment would reach wrap", duty: 11499, wrap: 12499, inc: true, want: 11499},
		{name: "increment just below wrap", duty: 11498, wrap: 12499, inc: true, want: 12498},
		{name: "decrement at step", duty: 1000, wrap: 12499, dec: true, want: 1000},
		{name: "decrement above step", duty: 1001, wrap: 12499, dec: true, want: 1},
		{name: "decrement from zero", duty: 0, wrap: 12499, dec: true, want: 0},
		{name: "tiny wrap", duty: 1, wrap: 1, inc: true, dec: true, want: 1},
		{name: "duty above wrap clamps", duty: 20, wrap: 10, want: 10},
		{name: "increment overflow guarded", duty: ^uint32(0) - 10, wrap: ^uint32(0), inc: true, want: ^uint32(0) - 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Nudge(tt.duty, tt.wrap, tt.inc, tt.dec)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, tt.wrap)
		})
	}
}

func TestGenerator_Compute(t *testing.T) {
	g := New(DefaultParams, input.DefaultRange, &sim.PWM{})

	tests := []struct {
		name string
		in   input.Inputs
		want Parameters
	}{
		{
			name: "minimum frequency",
			in:   input.Inputs{X: 0, Y: 0},
			want: Parameters{FrequencyHz: 50, Wrap: 2499999, Duty: 0},
		},
		{
			name: "maximum frequency full duty",
			in:   input.Inputs{X: 4095, Y: 4095},
			want: Parameters{FrequencyHz: 10000, Wrap: 12499, Duty: 12499},
		},
		{
			name: "maximum frequency half duty with increment",
			in:   input.Inputs{X: 4095, Y: 2048, Increment: true},
			want: Parameters{FrequencyHz: 10000, Wrap: 12499, Duty: 7251},
		},
		{
			name: "full duty with increment stays at wrap",
			in:   input.Inputs{X: 4095, Y: 4095, Increment: true},
			want: Parameters{FrequencyHz: 10000, Wrap: 12499, Duty: 12499},
		},
		{
			name: "low duty with decrement",
			in:   input.Inputs{X: 4095, Y: 100, Decrement: true},
			want: Parameters{FrequencyHz: 10000, Wrap: 12499, Duty: 305},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Compute(tt.in)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Wrap, uint32(1))
			assert.LessOrEqual(t, got.Duty, got.Wrap)
		})
	}
}

func TestGenerator_NotCumulative(t *testing.T) {
	out := &sim.PWM{}
	g := New(DefaultParams, input.DefaultRange, out)

	in := input.Inputs{X: 4095, Y: 2048, Increment: true}
	first := g.Compute(in)
	g.Program(first)

	// Holding the button re-applies one step against the fresh base, it
	// does not ramp.
	for i := 0; i < 5; i++ {
		p := g.Compute(in)
		g.Program(p)
		assert.Equal(t, first, p)
	}

	wrap, level := out.State()
	assert.Equal(t, first.Wrap, wrap)
	assert.Equal(t, first.Duty, level)

	in.Increment = false
	assert.Equal(t, first.Duty-DefaultParams.Step, g.Compute(in).Duty)
}

func TestGenerator_ProgramAlwaysWrites(t *testing.T) {
	out := &sim.PWM{}
	g := New(DefaultParams, input.DefaultRange, out)

	p := g.Compute(input.Inputs{X: 1000, Y: 1000})
	g.Program(p)
	g.Program(p)
	g.Program(p)

	require.Equal(t, 6, out.Writes())
}

func TestParameters_DutyPercent(t *testing.T) {
	assert.InDelta(t, 50.0, Parameters{Wrap: 1000, Duty: 500}.DutyPercent(), 0.0001)
	assert.InDelta(t, 100.0, Parameters{Wrap: 1, Duty: 1}.DutyPercent(), 0.0001)
	assert.Equal(t, float32(0), Parameters{}.DutyPercent())
}
