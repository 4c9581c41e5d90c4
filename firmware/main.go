//go:build rp2040

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"io"
	"machine"
	"time"

	"github.com/itohio/pwmc/pkg/control"
	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/probe"
	"github.com/itohio/pwmc/pkg/status"
	"github.com/itohio/pwmc/pkg/waveform"
)

// serialSink writes one status line per report.
type serialSink struct {
	w      io.Writer
	buf    []byte
	failed bool
}

func (s *serialSink) Report(r status.Report) {
	s.buf = status.AppendLine(s.buf[:0], r)
	s.buf = append(s.buf, '\r', '\n')
	_, err := s.w.Write(s.buf)
	if err != nil && !s.failed {
		println("serial:", err.Error())
	}
	s.failed = err != nil
}

func main() {
	machine.InitADC()

	sampler := input.NewSampler(
		newAnalog(PIN_JOY_X),
		newAnalog(PIN_JOY_Y),
		newButton(PIN_BUTTON_A),
		newButton(PIN_BUTTON_B),
	)

	out, err := newPWM(machine.PWM0, PIN_PWM, waveform.DefaultParams.ClockHz)
	if err != nil {
		halt("pwm:", err)
	}
	generator := waveform.New(waveform.DefaultParams, input.DefaultRange, out)

	meter := probe.New()
	probeInput := &edgeInput{pin: PIN_PROBE, clock: ticksClock{}}
	if err := probeInput.Attach(meter); err != nil {
		halt("probe interrupt:", err)
	}

	sinks := status.Multi{
		&serialSink{w: machine.Serial, buf: make([]byte, 0, 128)},
		status.SinkFunc(func(status.Report) { machine.Watchdog.Update() }),
	}

	if display, err := newDisplay(machine.I2C1); err != nil {
		println("display:", err.Error())
	} else {
		go display.run()
		sinks = append(sinks, display)
	}

	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: WATCHDOG_TIMEOUT_MS})
	machine.Watchdog.Start()

	loop := control.New(sampler, generator, meter, sinks, control.DefaultPeriod)
	halt("loop:", loop.Run(context.Background()))
}

// halt reports err and parks the board; the watchdog is not fed, so a
// started watchdog resets it.
func halt(msg string, err error) {
	text := "stopped"
	if err != nil {
		text = err.Error()
	}
	for {
		println(msg, text)
		time.Sleep(time.Second)
	}
}
