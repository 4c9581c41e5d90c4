//go:build rp2040

package main

import (
	"machine"
	_ "unsafe"

	"github.com/itohio/pwmc/pkg/hal"
)

//go:linkname ticks runtime.ticks
func ticks() uint64

//go:linkname ticksToNanoseconds runtime.ticksToNanoseconds
func ticksToNanoseconds(ticks uint64) int64

// ticksClock is the runtime timer in microseconds, truncated to 32 bits.
type ticksClock struct{}

func (ticksClock) Now() uint32 {
	return uint32(ticksToNanoseconds(ticks()) / 1000)
}

// analogInput scales the 16-bit machine.ADC reading down to 12 bits.
type analogInput struct {
	adc machine.ADC
}

func newAnalog(pin machine.Pin) *analogInput {
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &analogInput{adc: adc}
}

func (a *analogInput) Get() uint16 {
	return a.adc.Get() >> 4
}

func newButton(pin machine.Pin) machine.Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return pin
}

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetPeriod(period uint64) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmOutput maps counter wrap and level onto a slice whose counter is only
// 16 bits wide: the wrap becomes a period and the level is rescaled to Top.
type pwmOutput struct {
	pwm     pwmPeripheral
	channel uint8
	clockHz uint64
	wrap    uint32
}

func newPWM(pwm pwmPeripheral, pin machine.Pin, clockHz uint32) (*pwmOutput, error) {
	if err := pwm.Configure(machine.PWMConfig{Period: 1e6}); err != nil {
		return nil, err
	}
	channel, err := pwm.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &pwmOutput{
		pwm:     pwm,
		channel: channel,
		clockHz: uint64(clockHz),
		wrap:    1,
	}, nil
}

// SetWrap reprograms the period only when it changes; SetPeriod restarts
// the slice counter.
func (p *pwmOutput) SetWrap(wrap uint32) {
	if wrap == p.wrap {
		return
	}
	p.wrap = wrap
	period := (uint64(wrap) + 1) * 1e9 / p.clockHz
	if err := p.pwm.SetPeriod(period); err != nil {
		println("pwm period:", err.Error())
	}
}

func (p *pwmOutput) SetLevel(level uint32) {
	top := uint64(p.pwm.Top())
	p.pwm.Set(p.channel, uint32(uint64(level)*(top+1)/(uint64(p.wrap)+1)))
}

// edgeInput reports both edges of a pin from its interrupt.
type edgeInput struct {
	pin   machine.Pin
	clock hal.Clock
}

func (e *edgeInput) Attach(h hal.EdgeHandler) error {
	e.pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	// The callback does not carry the edge direction; the level read right
	// after the edge stands in for it.
	return e.pin.SetInterrupt(machine.PinToggle, func(pin machine.Pin) {
		h.HandleEdge(e.clock.Now(), pin.Get())
	})
}

var (
	_ hal.Analog     = (*analogInput)(nil)
	_ hal.Pin        = machine.Pin(0)
	_ hal.PWM        = (*pwmOutput)(nil)
	_ hal.EdgeSource = (*edgeInput)(nil)
	_ hal.Clock      = ticksClock{}
)
