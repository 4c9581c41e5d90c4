package control

import (
	"context"
	"time"

	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/probe"
	"github.com/itohio/pwmc/pkg/status"
	"github.com/itohio/pwmc/pkg/waveform"
)

// DefaultPeriod is the control cadence.
const DefaultPeriod = 200 * time.Millisecond

// Prober provides the latest probe measurement.
type Prober interface {
	Snapshot() probe.Snapshot
}

// Loop is the fixed-cadence cycle: sample inputs, program the generator,
// read the probe and emit one report.
type Loop struct {
	sampler   *input.Sampler
	generator *waveform.Generator
	probe     Prober
	sink      status.Sink
	period    time.Duration

	last  waveform.Parameters
	edges uint32
}

// New creates a control loop. A zero period selects DefaultPeriod and a nil
// sink discards reports.
func New(sampler *input.Sampler, generator *waveform.Generator, prober Prober, sink status.Sink, period time.Duration) *Loop {
	if period <= 0 {
		period = DefaultPeriod
	}
	if sink == nil {
		sink = status.SinkFunc(func(status.Report) {})
	}
	return &Loop{
		sampler:   sampler,
		generator: generator,
		probe:     prober,
		sink:      sink,
		period:    period,
	}
}

// Step runs a single cycle and returns the report it emitted.
func (l *Loop) Step() status.Report {
	in := l.sampler.Sample()

	params := l.generator.Compute(in)
	l.generator.Program(params)
	l.last = params

	snap := l.probe.Snapshot()

	r := status.Report{
		FrequencyHz:         params.FrequencyHz,
		DutyPercent:         params.DutyPercent(),
		MeasuredHz:          snap.FrequencyHz(),
		MeasuredDutyPercent: snap.DutyPercent(),
		Wrap:                params.Wrap,
		Level:               params.Duty,
		Edges:               snap.Edges,
	}
	// values freeze when the signal is lost; flag them
	r.Stale = status.Frozen(l.edges, r)
	l.edges = snap.Edges
	l.sink.Report(r)

	return r
}

// Run executes Step immediately and then once per period until ctx is done.
// It returns the context error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Step()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Last returns the parameters programmed by the latest Step. It must not be
// called concurrently with Run.
func (l *Loop) Last() waveform.Parameters {
	return l.last
}

// Period returns the loop cadence.
func (l *Loop) Period() time.Duration {
	return l.period
}
