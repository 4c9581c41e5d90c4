package status

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Error is a status line parse error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrMalformed = Error("malformed status line")
	ErrField     = Error("invalid status field")
)

// Report is the outcome of one control cycle.
type Report struct {
	FrequencyHz         uint32  // generated frequency target
	DutyPercent         float32 // generated duty, 100*duty/wrap
	MeasuredHz          uint32  // probe frequency, 0 without signal
	MeasuredDutyPercent float32 // probe duty, 0 without signal
	Wrap                uint32
	Level               uint32

	// Edges is the probe edge counter. It wraps and is 0 when unknown.
	Edges uint32

	// Stale is set when a measurement is present but no edge arrived since
	// the previous cycle. It is not part of the status line; readers derive
	// it from Edges.
	Stale bool
}

// Frozen reports whether r carries a measurement although the edge counter
// did not move since prevEdges. A zero counter is unknown and never frozen.
func Frozen(prevEdges uint32, r Report) bool {
	return r.MeasuredHz != 0 && r.Edges != 0 && r.Edges == prevEdges
}

// Sink consumes one report per control cycle.
type Sink interface {
	Report(r Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r Report)

func (f SinkFunc) Report(r Report) {
	f(r)
}

// Multi fans reports out to every sink in order.
type Multi []Sink

func (m Multi) Report(r Report) {
	for _, s := range m {
		s.Report(r)
	}
}

// Line format:
//
//	Freq: 1000 Hz | Duty: 50.0 % | Probe: 999 Hz | Probe duty: 49.9 % | Wrap: 124999 | Level: 62499 | Edges: 4031
const (
	keyFreq      = "Freq"
	keyDuty      = "Duty"
	keyProbe     = "Probe"
	keyProbeDuty = "Probe duty"
	keyWrap      = "Wrap"
	keyLevel     = "Level"
	keyEdges     = "Edges"

	sep = " | "
)

// AppendLine appends the status line for r to dst, without a newline.
// It does not allocate when dst has room for the line.
func AppendLine(dst []byte, r Report) []byte {
	dst = append(dst, keyFreq+": "...)
	dst = strconv.AppendUint(dst, uint64(r.FrequencyHz), 10)
	dst = append(dst, " Hz"+sep+keyDuty+": "...)
	dst = appendPercent(dst, r.DutyPercent)
	dst = append(dst, " %"+sep+keyProbe+": "...)
	dst = strconv.AppendUint(dst, uint64(r.MeasuredHz), 10)
	dst = append(dst, " Hz"+sep+keyProbeDuty+": "...)
	dst = appendPercent(dst, r.MeasuredDutyPercent)
	dst = append(dst, " %"+sep+keyWrap+": "...)
	dst = strconv.AppendUint(dst, uint64(r.Wrap), 10)
	dst = append(dst, sep+keyLevel+": "...)
	dst = strconv.AppendUint(dst, uint64(r.Level), 10)
	dst = append(dst, sep+keyEdges+": "...)
	dst = strconv.AppendUint(dst, uint64(r.Edges), 10)
	return dst
}

// Line returns the status line for r.
func Line(r Report) string {
	return string(AppendLine(make([]byte, 0, 112), r))
}

func appendPercent(dst []byte, p float32) []byte {
	return strconv.AppendFloat(dst, float64(roundTenth(p)), 'f', 1, 32)
}

func roundTenth(p float32) float32 {
	return math32.Floor(p*10+0.5) / 10
}

// ParseLine parses a status line. The trailing fields are optional: lines
// carrying only the four measurement fields, or those plus Wrap and Level,
// are accepted too and leave the missing values zero.
func ParseLine(line string) (Report, error) {
	parts := strings.Split(strings.TrimSpace(line), sep)
	if len(parts) != 4 && len(parts) != 6 && len(parts) != 7 {
		return Report{}, fmt.Errorf("%w: expected 4, 6 or 7 fields, got %d", ErrMalformed, len(parts))
	}

	var (
		r   Report
		err error
	)
	if r.FrequencyHz, err = parseUint(parts[0], keyFreq, "Hz"); err != nil {
		return Report{}, err
	}
	if r.DutyPercent, err = parsePercent(parts[1], keyDuty); err != nil {
		return Report{}, err
	}
	if r.MeasuredHz, err = parseUint(parts[2], keyProbe, "Hz"); err != nil {
		return Report{}, err
	}
	if r.MeasuredDutyPercent, err = parsePercent(parts[3], keyProbeDuty); err != nil {
		return Report{}, err
	}
	if len(parts) >= 6 {
		if r.Wrap, err = parseUint(parts[4], keyWrap, ""); err != nil {
			return Report{}, err
		}
		if r.Level, err = parseUint(parts[5], keyLevel, ""); err != nil {
			return Report{}, err
		}
	}
	if len(parts) == 7 {
		if r.Edges, err = parseUint(parts[6], keyEdges, ""); err != nil {
			return Report{}, err
		}
	}

	return r, nil
}

// fieldValue strips "key: " and the optional unit from a field.
func fieldValue(field, key, unit string) (string, error) {
	v, ok := strings.CutPrefix(field, key+": ")
	if !ok {
		return "", fmt.Errorf("%w: expected %q, got %q", ErrMalformed, key, field)
	}
	if unit != "" {
		v, ok = strings.CutSuffix(v, " "+unit)
		if !ok {
			return "", fmt.Errorf("%w: %s missing unit %q", ErrMalformed, key, unit)
		}
	}
	return v, nil
}

func parseUint(field, key, unit string) (uint32, error) {
	v, err := fieldValue(field, key, unit)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrField, key, err)
	}
	return uint32(n), nil
}

func parsePercent(field, key string) (float32, error) {
	v, err := fieldValue(field, key, "%")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrField, key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: %s out of range: %v", ErrField, key, f)
	}
	return float32(f), nil
}
