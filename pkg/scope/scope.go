package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/track"
)

// Trace selects which pair of values the scope plots.
type Trace int

const (
	// TraceFrequency plots generated vs measured frequency (Hz).
	TraceFrequency Trace = iota
	// TraceDuty plots generated vs measured duty (%).
	TraceDuty
)

// Traces lists the selectable trace names in display order.
var Traces = []string{"Frequency", "Duty"}

func (t Trace) String() string {
	if t >= 0 && int(t) < len(Traces) {
		return Traces[t]
	}
	return "Unknown"
}

// ParseTrace returns the trace named name, or TraceFrequency.
func ParseTrace(name string) Trace {
	for i, n := range Traces {
		if n == name {
			return Trace(i)
		}
	}
	return TraceFrequency
}

// generated returns the generator value of s for the trace.
func (t Trace) generated(s sample.Sample) float64 {
	if t == TraceDuty {
		return s.GeneratedDuty
	}
	return s.GeneratedHz
}

// measured returns the probe value of s for the trace.
func (t Trace) measured(s sample.Sample) float64 {
	if t == TraceDuty {
		return s.MeasuredDuty
	}
	return s.MeasuredHz
}

var (
	colorBackground = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colorGenerated  = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	colorMeasured   = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	colorLock       = color.RGBA{R: 0, G: 160, B: 80, A: 255}    // Green
)

// ScopeWidget is a custom Fyne widget that plots generated against measured
// waveform parameters over the tracking window.
type ScopeWidget struct {
	widget.BaseWidget

	window time.Duration

	// Data (protected by mu)
	mu      sync.RWMutex
	trace   Trace
	samples []sample.Sample
	locks   []track.Lock
	locked  bool

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		window:           time.Duration(cfg.Track.WindowSeconds * float64(time.Second)),
		samples:          make([]sample.Sample, 0),
		locks:            make([]track.Lock, 0),
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	s.Refresh()
	return s
}

// SetTrace switches the plotted values.
func (s *ScopeWidget) SetTrace(t Trace) {
	s.mu.Lock()
	s.trace = t
	s.updateAutoScale()
	s.mu.Unlock()

	s.Refresh()
}

// Trace returns the plotted values.
func (s *ScopeWidget) Trace() Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trace
}

// UpdateData updates the widget with new tracking data.
// This should be called from the tracker callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, locks []track.Lock) {
	s.mu.Lock()

	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)
	s.samples = samples
	s.locks = locks
	s.locked = len(locks) > 0 && len(samples) > 0 && locks[len(locks)-1].EndIndex == len(samples)-1
	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateAutoScale calculates axis ranges from current data. Callers hold mu.
func (s *ScopeWidget) updateAutoScale() {
	if len(s.displaySamples) == 0 {
		s.yMin = 0.0
		s.yMax = 1.0
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}

	s.yMin, s.yMax = valueRange(s.displaySamples, s.trace)

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// valueRange returns the y range covering both traces with a 10% margin.
// Measured values only count while the probe has a signal. The range always
// includes zero.
func valueRange(samples []sample.Sample, t Trace) (lo, hi float64) {
	for _, s := range samples {
		hi = max(hi, t.generated(s))
		if s.HasSignal() {
			hi = max(hi, t.measured(s))
		}
	}
	if hi == 0 {
		hi = 1.0
	}
	return lo, hi * 1.1
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(colorBackground)
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
