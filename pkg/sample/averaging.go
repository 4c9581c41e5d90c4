package sample

import (
	"log"
)

// NewAveragingConverter creates a converter that emits, for every input
// sample, the moving average of the last windowSize samples. The measured
// fields are averaged only over samples that carry a probe signal.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize+1)
			for s := range in {
				buffer = append(buffer, s)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}

				select {
				case out <- Average(buffer):
				default:
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// Average averages a slice of samples, keeping the most recent timestamp.
// A stale latest sample makes the average stale.
func Average(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumGenHz, sumGenDuty, sumMeasHz, sumMeasDuty float64
	var measured int
	last := samples[len(samples)-1]

	for _, s := range samples {
		sumGenHz += s.GeneratedHz
		sumGenDuty += s.GeneratedDuty
		if s.HasSignal() {
			sumMeasHz += s.MeasuredHz
			sumMeasDuty += s.MeasuredDuty
			measured++
		}
	}

	n := float64(len(samples))
	avg := Sample{
		Timestamp:     last.Timestamp,
		GeneratedHz:   sumGenHz / n,
		GeneratedDuty: sumGenDuty / n,
		Edges:         last.Edges,
		Stale:         last.Stale,
	}
	switch {
	case measured > 0:
		avg.MeasuredHz = sumMeasHz / float64(measured)
		avg.MeasuredDuty = sumMeasDuty / float64(measured)
	case last.Stale:
		avg.MeasuredHz = last.MeasuredHz
		avg.MeasuredDuty = last.MeasuredDuty
	}
	if avg.HasSignal() {
		avg.ErrorPercent = errorPercent(avg.MeasuredHz, avg.GeneratedHz)
	}

	return avg
}
