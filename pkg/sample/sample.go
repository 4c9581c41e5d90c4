package sample

import (
	"log"
	"time"

	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/status"
)

// Sample is a report converted to floating point values for display and
// tracking.
type Sample struct {
	Timestamp     time.Time
	GeneratedHz   float64 // generator target frequency
	GeneratedDuty float64 // generator duty (%)
	MeasuredHz    float64 // probe frequency, 0 without signal
	MeasuredDuty  float64 // probe duty (%)
	ErrorPercent  float64 // (measured-generated)/generated in %, 0 without signal
	Edges         uint32  // probe edge counter, 0 when unknown
	Stale         bool    // measurement frozen, no edges since the previous sample
}

// HasSignal reports whether the probe saw a live signal.
func (s Sample) HasSignal() bool {
	return s.MeasuredHz > 0 && !s.Stale
}

// Converter is a function type that converts Reading channel to Sample channel.
type Converter func(in <-chan link.Reading) <-chan Sample

// NewConverter creates a converter function that transforms Reading to Sample.
// Readings whose edge counter did not move since the previous reading are
// marked stale.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var edges uint32
			for r := range in {
				if status.Frozen(edges, r.Report) {
					r.Stale = true
				}
				edges = r.Edges

				select {
				case out <- Convert(r):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Convert converts a single reading. A stale reading keeps its measured
// values but reports no signal and no error.
func Convert(r link.Reading) Sample {
	s := Sample{
		Timestamp:     r.Timestamp,
		GeneratedHz:   float64(r.FrequencyHz),
		GeneratedDuty: float64(r.DutyPercent),
		MeasuredHz:    float64(r.MeasuredHz),
		MeasuredDuty:  float64(r.MeasuredDutyPercent),
		Edges:         r.Edges,
		Stale:         r.Stale,
	}
	if s.HasSignal() {
		s.ErrorPercent = errorPercent(s.MeasuredHz, s.GeneratedHz)
	}
	return s
}

func errorPercent(measured, generated float64) float64 {
	if measured == 0 || generated == 0 {
		return 0
	}
	return 100 * (measured - generated) / generated
}
