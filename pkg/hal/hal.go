// Package hal defines the peripheral contracts the generator and the probe
// consume. Firmware implements them on top of TinyGo's machine package, tests
// and the host mock implement them in pkg/sim.
package hal

// Analog is a single 12-bit analog input channel.
type Analog interface {
	// Get returns the latest conversion in the range 0..4095.
	Get() uint16
}

// Pin is a digital input. Get reports the logic level, pull resistors are
// configured by the implementation.
type Pin interface {
	Get() bool
}

// PWM is one hardware PWM output.
type PWM interface {
	// SetWrap sets the counter maximum; the output period is wrap+1 clock ticks.
	SetWrap(wrap uint32)
	// SetLevel sets the compare value; the output is high while counter < level.
	SetLevel(level uint32)
}

// EdgeHandler receives edges of the probe input. HandleEdge runs in interrupt
// context and must not block.
type EdgeHandler interface {
	HandleEdge(nowUs uint32, rising bool)
}

// EdgeSource delivers rising and falling edges of one input to a handler.
type EdgeSource interface {
	Attach(h EdgeHandler) error
}

// Clock is a monotonic microsecond counter that wraps at 2^32.
type Clock interface {
	Now() uint32
}
