package sample

import (
	"testing"
	"time"

	"github.com/itohio/pwmc/pkg/link"
	"github.com/stretchr/testify/assert"
)

// TestConverter_GracefulShutdown tests that the converter closes its output
// channel when the input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	converter := NewConverter(10)
	in := make(chan link.Reading, 10)
	out := converter(in)

	received := make(chan int, 1)
	go func() {
		count := 0
		for range out {
			count++
		}
		received <- count
	}()

	now := time.Now()
	for i := 0; i < 3; i++ {
		in <- reading(now.Add(time.Duration(i)*time.Second), 1000, 1000, 50, 50)
	}
	close(in)

	select {
	case count := <-received:
		assert.Equal(t, 3, count)
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}
}

// TestAveragingConverter_GracefulShutdown tests that the averaging converter
// closes its output channel when the input channel is closed.
func TestAveragingConverter_GracefulShutdown(t *testing.T) {
	converter := NewAveragingConverter(5, 10)
	in := make(chan Sample, 10)
	out := converter(in)

	in <- Sample{GeneratedHz: 1000}
	close(in)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range out {
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}
}
