package main

import (
	"fmt"

	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/track"
)

const chainBufferSize = 500

// trackingChain tracks the components of the tracking chain for graceful shutdown.
type trackingChain struct {
	device       link.Device
	trackerDone  chan struct{} // Closed when the tracker goroutine exits
	readingsDone chan struct{} // Closed when the readings tap exits
}

// newDevice creates the board selected by the configuration. The simulated
// board gets its own copy so settings edits apply on reconnect.
func newDevice(cfg *config.Config, useMock bool) link.Device {
	if useMock {
		c := *cfg
		return link.NewMock(&c)
	}
	return link.New(cfg.Serial.Port, cfg.Serial.BaudRate, link.DefaultBufferSize)
}

// describe names the device for log lines and dialogs.
func describe(cfg *config.Config, useMock bool) string {
	if useMock {
		return "mocked device"
	}
	return "serial port " + cfg.Serial.Port
}

// startChain connects the device and wires readings through the converters
// into the tracker. onReading, when set, sees every reading before conversion.
func startChain(cfg *config.Config, device link.Device, tracker *track.Tracker, onReading func(link.Reading)) (*trackingChain, error) {
	if err := device.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	tracker.ResetShutdown()

	readings := tapReadings(device.Readings(), onReading)

	// Chain converters: base converter always used, averaging converter when enabled
	var samples <-chan sample.Sample = sample.NewConverter(chainBufferSize)(readings.out)
	if cfg.Track.AverageSamples > 0 {
		samples = sample.NewAveragingConverter(cfg.Track.AverageSamples, chainBufferSize)(samples)
	}

	chain := &trackingChain{
		device:       device,
		trackerDone:  make(chan struct{}),
		readingsDone: readings.done,
	}
	go func() {
		defer close(chain.trackerDone)
		tracker.ProcessSamples(samples)
	}()

	return chain, nil
}

type tap struct {
	out  <-chan link.Reading
	done chan struct{}
}

// tapReadings forwards readings, calling fn on each one first.
func tapReadings(in <-chan link.Reading, fn func(link.Reading)) tap {
	out := make(chan link.Reading, chainBufferSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		for r := range in {
			if fn != nil {
				fn(r)
			}
			out <- r
		}
	}()

	return tap{out: out, done: done}
}

// closeChain gracefully closes the chain.
// Waits for all goroutines to finish and channels to drain.
func closeChain(chain *trackingChain) {
	if chain == nil {
		return
	}

	// Closing the device closes its readings channel
	if chain.device != nil {
		chain.device.Close()
	}

	<-chain.readingsDone
	// The tracker exits when the converters finish draining
	<-chain.trackerDone
}
