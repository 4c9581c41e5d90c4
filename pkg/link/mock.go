package link

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/control"
	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/probe"
	"github.com/itohio/pwmc/pkg/sim"
	"github.com/itohio/pwmc/pkg/status"
	"github.com/itohio/pwmc/pkg/waveform"
)

// Mock simulates the board: the real control loop runs against software
// peripherals, and the probe input sees either the generated output, a fixed
// signal or nothing. Time on the board is virtual and advances by one loop
// period per cycle, so every cycle feeds the probe the edges of that period.
type Mock struct {
	cfg *config.Config

	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool
	done      chan struct{}

	// Board
	x, y     *sim.Analog
	inc, dec *sim.Pin
	out      *sim.PWM
	clock    *sim.Clock
	signal   *sim.Signal
	meter    *probe.Meter
	loop     *control.Loop

	startTime time.Time
	sweep     bool
}

// NewMock creates a new mocked board instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	m := &Mock{
		cfg:      cfg,
		readings: make(chan Reading, DefaultBufferSize),
		x:        sim.NewAnalog(cfg.Mock.X),
		y:        sim.NewAnalog(cfg.Mock.Y),
		inc:      sim.NewButton(),
		dec:      sim.NewButton(),
		out:      &sim.PWM{},
		clock:    sim.NewClock(0),
		signal:   &sim.Signal{},
		meter:    probe.New(),
		sweep:    cfg.Mock.SweepPeriod > 0,
	}
	m.inc.Press(cfg.Mock.Increment)
	m.dec.Press(cfg.Mock.Decrement)
	if err := m.signal.Attach(m.meter); err != nil {
		log.Printf("Mock probe input: %v", err)
	}

	sampler := input.NewSampler(m.x, m.y, m.inc, m.dec)
	gen := waveform.New(cfg.Params(), cfg.Range(), m.out)
	m.loop = control.New(sampler, gen, m.meter, nil, cfg.Loop.Period)

	return m
}

// Connect simulates powering up the board: the probe starts unprimed and a
// board closed before gets a fresh readings channel.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}
	if m.done != nil {
		select {
		case <-m.done:
		default:
			return ErrClosing
		}
	}
	if m.closed {
		m.readings = make(chan Reading, DefaultBufferSize)
		m.closed = false
	}
	// run is not active, nothing feeds the meter
	m.meter.Reset()

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.connected = true
	m.startTime = time.Now()
	m.done = make(chan struct{})

	ctx, done, readings := m.ctx, m.done, m.readings
	go func() {
		defer close(done)
		m.run(ctx, readings)
	}()

	return nil
}

// Close stops the mocked board and closes the readings channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.closed = true
	m.cancel()
	done := m.done
	readings := m.readings
	m.mu.Unlock()

	// run takes the read lock each cycle, wait without holding it
	<-done
	close(readings)

	return nil
}

// Readings returns the channel of simulated reports.
func (m *Mock) Readings() <-chan Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetInputs moves the joystick and presses buttons. Setting inputs stops
// the X sweep.
func (m *Mock) SetInputs(in input.Inputs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.sweep = false
	m.x.Set(in.X)
	m.y.Set(in.Y)
	m.inc.Press(in.Increment)
	m.dec.Press(in.Decrement)

	return nil
}

// Inputs returns the current simulated inputs.
func (m *Mock) Inputs() input.Inputs {
	return input.Inputs{
		X:         m.x.Get(),
		Y:         m.y.Get(),
		Increment: !m.inc.Get(),
		Decrement: !m.dec.Get(),
	}
}

// run drives the board at the loop cadence until the context is cancelled.
func (m *Mock) run(ctx context.Context, readings chan<- Reading) {
	ticker := time.NewTicker(m.loop.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reading := m.cycle(now)
			select {
			case readings <- reading:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// cycle runs one control cycle followed by one loop period of probe edges.
func (m *Mock) cycle(now time.Time) Reading {
	m.mu.RLock()
	sweep := m.sweep
	m.mu.RUnlock()

	if sweep {
		phase := float32(now.Sub(m.startTime)) / float32(m.cfg.Mock.SweepPeriod)
		m.x.Set(uint16(sim.Triangle(phase) * float32(m.cfg.Generator.FullScale)))
	}

	r := m.loop.Step()

	from := m.clock.Now()
	to := m.clock.Advance(uint32(m.loop.Period() / time.Microsecond))
	periodUs, highUs := m.probeWaveform()
	m.signal.Run(from, to, periodUs, highUs)

	return Reading{Timestamp: now, Report: r}
}

// probeWaveform returns the signal seen by the probe input.
func (m *Mock) probeWaveform() (periodUs, highUs uint32) {
	switch m.cfg.Mock.Probe.Mode {
	case config.ProbeLoopback:
		return m.out.Waveform(m.cfg.Generator.ClockHz)
	case config.ProbeFixed:
		periodUs = sim.PeriodUs(m.cfg.Mock.Probe.FrequencyHz)
		return periodUs, sim.HighTime(periodUs, m.cfg.Mock.Probe.DutyPercent)
	default:
		return 0, 0
	}
}

// Step runs a single cycle without the ticker, for driving a board that is
// not connected.
func (m *Mock) Step() status.Report {
	return m.cycle(time.Now()).Report
}
