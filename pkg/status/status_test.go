package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	r := Report{
		FrequencyHz:         1000,
		DutyPercent:         50.0,
		MeasuredHz:          999,
		MeasuredDutyPercent: 49.94,
		Wrap:                124999,
		Level:               62499,
		Edges:               4031,
		Stale:               true,
	}

	assert.Equal(t,
		"Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499 | Edges: 4031",
		Line(r))
}

func TestLine_NoSignal(t *testing.T) {
	assert.Equal(t,
		"Freq: 50 Hz | Duty: 0.0 % | Probe: 0 Hz | Probe duty: 0.0 % | Wrap: 2499999 | Level: 0 | Edges: 0",
		Line(Report{FrequencyHz: 50, Wrap: 2499999}))
}

func TestLine_Rounding(t *testing.T) {
	assert.Contains(t, Line(Report{DutyPercent: 58.0048}), "Duty: 58.0 %")
	assert.Contains(t, Line(Report{DutyPercent: 99.96}), "Duty: 100.0 %")
	assert.Contains(t, Line(Report{DutyPercent: 12.25}), "Duty: 12.3 %")
}

func TestAppendLine_NoAllocation(t *testing.T) {
	buf := make([]byte, 0, 128)
	r := Report{FrequencyHz: 10000, DutyPercent: 58.0, MeasuredHz: 10000, MeasuredDutyPercent: 58.0, Wrap: 12499, Level: 7251, Edges: ^uint32(0)}

	allocs := testing.AllocsPerRun(100, func() {
		buf = AppendLine(buf[:0], r)
	})
	assert.Equal(t, float64(0), allocs)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Report
		wantErr error
	}{
		{
			name: "full line",
			line: "Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499 | Edges: 4031",
			want: Report{FrequencyHz: 1000, DutyPercent: 50, MeasuredHz: 999, MeasuredDutyPercent: 49.9, Wrap: 124999, Level: 62499, Edges: 4031},
		},
		{
			name: "without edges",
			line: "Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499",
			want: Report{FrequencyHz: 1000, DutyPercent: 50, MeasuredHz: 999, MeasuredDutyPercent: 49.9, Wrap: 124999, Level: 62499},
		},
		{
			name:    "bad edges",
			line:    "Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499 | Edges: -1",
			wantErr: ErrField,
		},
		{
			name:    "edges key wrong",
			line:    "Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499 | Count: 3",
			wantErr: ErrMalformed,
		},
		{
			name: "four fields",
			line: "Freq: 10000 Hz | Duty: 58.0 % | Probe: 0 Hz | Probe duty: 0.0 %",
			want: Report{FrequencyHz: 10000, DutyPercent: 58},
		},
		{
			name: "trailing newline",
			line: "Freq: 50 Hz | Duty: 0.0 % | Probe: 0 Hz | Probe duty: 0.0 %\r\n",
			want: Report{FrequencyHz: 50},
		},
		{
			name:    "original two field line",
			line:    "Freq: 1000 Hz | Duty: 50.0 %",
			wantErr: ErrMalformed,
		},
		{
			name:    "five fields",
			line:    "Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 1",
			wantErr: ErrMalformed,
		},
		{
			name:    "wrong key",
			line:    "Frequency: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 %",
			wantErr: ErrMalformed,
		},
		{
			name:    "missing unit",
			line:    "Freq: 1000 | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 %",
			wantErr: ErrMalformed,
		},
		{
			name:    "bad number",
			line:    "Freq: abc Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 %",
			wantErr: ErrField,
		},
		{
			name:    "negative percent",
			line:    "Freq: 1000 Hz | Duty: -5.0 % | Probe: 999 Hz | Probe duty: 49.9 %",
			wantErr: ErrField,
		},
		{
			name:    "garbage",
			line:    "boot: pwmc",
			wantErr: ErrMalformed,
		},
		{
			name:    "empty",
			line:    "",
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.FrequencyHz, got.FrequencyHz)
			assert.InDelta(t, tt.want.DutyPercent, got.DutyPercent, 0.001)
			assert.Equal(t, tt.want.MeasuredHz, got.MeasuredHz)
			assert.InDelta(t, tt.want.MeasuredDutyPercent, got.MeasuredDutyPercent, 0.001)
			assert.Equal(t, tt.want.Wrap, got.Wrap)
			assert.Equal(t, tt.want.Level, got.Level)
			assert.Equal(t, tt.want.Edges, got.Edges)
			assert.False(t, got.Stale)
		})
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	r := Report{FrequencyHz: 7312, DutyPercent: 33.3, MeasuredHz: 7299, MeasuredDutyPercent: 33.2, Wrap: 17094, Level: 5692, Edges: 81}

	got, err := ParseLine(Line(r))
	require.NoError(t, err)
	assert.Equal(t, r.FrequencyHz, got.FrequencyHz)
	assert.InDelta(t, r.DutyPercent, got.DutyPercent, 0.05)
	assert.InDelta(t, r.MeasuredDutyPercent, got.MeasuredDutyPercent, 0.05)
	assert.Equal(t, r.Wrap, got.Wrap)
	assert.Equal(t, r.Level, got.Level)
	assert.Equal(t, r.Edges, got.Edges)
}

func TestFrozen(t *testing.T) {
	tests := []struct {
		name string
		prev uint32
		r    Report
		want bool
	}{
		{"counter moved", 10, Report{MeasuredHz: 1000, Edges: 12}, false},
		{"counter stopped", 12, Report{MeasuredHz: 1000, Edges: 12}, true},
		{"no measurement", 12, Report{Edges: 12}, false},
		{"counter unknown", 0, Report{MeasuredHz: 1000}, false},
		{"counter wrapped", ^uint32(0), Report{MeasuredHz: 1000, Edges: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Frozen(tt.prev, tt.r))
		})
	}
}

func TestMulti(t *testing.T) {
	var got []uint32
	m := Multi{
		SinkFunc(func(r Report) { got = append(got, r.FrequencyHz) }),
		SinkFunc(func(r Report) { got = append(got, r.FrequencyHz+1) }),
	}

	m.Report(Report{FrequencyHz: 10})
	assert.Equal(t, []uint32{10, 11}, got)
}
