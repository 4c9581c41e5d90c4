package sample

import (
	"testing"
	"time"

	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(ts time.Time, gen, meas uint32, duty, measDuty float32) link.Reading {
	return link.Reading{
		Timestamp: ts,
		Report: status.Report{
			FrequencyHz:         gen,
			DutyPercent:         duty,
			MeasuredHz:          meas,
			MeasuredDutyPercent: measDuty,
		},
	}
}

func staleReading(ts time.Time, gen, meas uint32) link.Reading {
	r := reading(ts, gen, meas, 50, 50)
	r.Edges = 7
	r.Stale = true
	return r
}

func withEdges(r link.Reading, edges uint32) link.Reading {
	r.Edges = edges
	return r
}

func TestConvert(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		in        link.Reading
		wantError float64
		signal    bool
	}{
		{"exact", reading(now, 1000, 1000, 50, 50), 0, true},
		{"fast", reading(now, 1000, 1010, 50, 50), 1, true},
		{"slow", reading(now, 2000, 1900, 25, 25), -5, true},
		{"no signal", reading(now, 1000, 0, 50, 0), 0, false},
		{"generator zero", reading(now, 0, 100, 0, 50), 0, true},
		{"stale", staleReading(now, 1000, 1010), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Convert(tt.in)
			assert.Equal(t, now, s.Timestamp)
			assert.Equal(t, float64(tt.in.FrequencyHz), s.GeneratedHz)
			assert.Equal(t, float64(tt.in.DutyPercent), s.GeneratedDuty)
			assert.Equal(t, float64(tt.in.MeasuredHz), s.MeasuredHz)
			assert.InDelta(t, tt.wantError, s.ErrorPercent, 1e-9)
			assert.Equal(t, tt.signal, s.HasSignal())
		})
	}
}

func TestConverter(t *testing.T) {
	converter := NewConverter(10)
	in := make(chan link.Reading, 3)
	out := converter(in)

	now := time.Now()
	in <- reading(now, 1000, 1000, 50, 50)
	in <- reading(now.Add(time.Second), 1000, 990, 50, 49.5)
	close(in)

	var got []Sample
	for s := range out {
		got = append(got, s)
	}

	assert.Len(t, got, 2)
	assert.Equal(t, 1000.0, got[0].MeasuredHz)
	assert.InDelta(t, -1.0, got[1].ErrorPercent, 1e-9)
}

func TestConverter_FrozenEdges(t *testing.T) {
	converter := NewConverter(10)
	in := make(chan link.Reading, 5)
	out := converter(in)

	now := time.Now()
	in <- withEdges(reading(now, 1000, 1000, 50, 50), 100)
	in <- withEdges(reading(now, 1000, 1000, 50, 50), 100)
	in <- withEdges(reading(now, 1000, 1000, 50, 50), 300)
	// lines without the counter are never stale
	in <- reading(now, 1000, 1000, 50, 50)
	in <- reading(now, 1000, 1000, 50, 50)
	close(in)

	var got []Sample
	for s := range out {
		got = append(got, s)
	}

	require.Len(t, got, 5)
	assert.True(t, got[0].HasSignal())
	assert.True(t, got[1].Stale)
	assert.False(t, got[1].HasSignal())
	assert.Equal(t, 1000.0, got[1].MeasuredHz, "frozen value is kept")
	assert.Equal(t, uint32(100), got[1].Edges)
	assert.True(t, got[2].HasSignal())
	assert.True(t, got[3].HasSignal())
	assert.True(t, got[4].HasSignal())
}
