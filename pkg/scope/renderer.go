package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/track"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Lock markers and labels
	lockLines  []*canvas.Line
	lockLabels []*canvas.Text

	// Latest values label
	valueLabel *canvas.Text

	gridLines []*canvas.Line
	gridTexts []*canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

type plotArea struct {
	x, y, width, height float32
	yMin, yMax          float64
	xMin, xMax          time.Time
}

func (p plotArea) posX(ts time.Time) float32 {
	return p.x + float32(ts.Sub(p.xMin).Seconds()/p.xMax.Sub(p.xMin).Seconds())*p.width
}

func (p plotArea) posY(v float64) float32 {
	return p.y + p.height - float32((v-p.yMin)/(p.yMax-p.yMin))*p.height
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	all := r.scope.samples
	locks := r.scope.locks
	locked := r.scope.locked
	trace := r.scope.trace
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]
	r.lockLines = r.lockLines[:0]
	r.lockLabels = r.lockLabels[:0]
	r.valueLabel = nil

	marginLeft := float32(70.0)
	marginRight := float32(20.0)
	marginTop := float32(30.0)
	marginBottom := float32(40.0)

	area.x = marginLeft
	area.y = marginTop
	area.width = size.Width - marginLeft - marginRight
	area.height = size.Height - marginTop - marginBottom

	r.drawGrid(area, trace)
	r.drawLocks(area, locks, all, trace)

	if len(samples) > 1 {
		r.drawTrace(area, samples, trace.generated, nil, colorGenerated, 1.5)
		r.drawTrace(area, samples, trace.measured, sample.Sample.HasSignal, colorMeasured, 2.5)
	}

	if len(all) > 0 {
		r.drawValues(area, all[len(all)-1], locked)
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(p plotArea, trace Trace) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := p.y + float32(i)*p.height/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.width, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/float64(numHLines)
		text := canvas.NewText(formatValue(value, trace), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	numVLines := 10
	for i := 0; i <= numVLines; i++ {
		x := p.x + float32(i)*p.width/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.height)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		offset := time.Duration(float64(i) * float64(p.xMax.Sub(p.xMin)) / float64(numVLines))
		text := canvas.NewText(formatTime(offset), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.height+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one value of every sample as connected segments. When
// keep is set, samples it rejects break the line.
func (r *scopeRenderer) drawTrace(p plotArea, samples []sample.Sample, value func(sample.Sample) float64, keep func(sample.Sample) bool, c color.Color, width float32) {
	var prev fyne.Position
	havePrev := false
	for _, s := range samples {
		if keep != nil && !keep(s) {
			havePrev = false
			continue
		}
		pos := fyne.NewPos(p.posX(s.Timestamp), p.posY(value(s)))
		if havePrev {
			line := canvas.NewLine(c)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = width
			r.objects = append(r.objects, line)
		}
		prev = pos
		havePrev = true
	}
}

// drawLocks marks lock segments with vertical lines and a label.
func (r *scopeRenderer) drawLocks(p plotArea, locks []track.Lock, samples []sample.Sample, trace Trace) {
	if len(samples) == 0 {
		return
	}

	for _, l := range locks {
		if l.StartIndex < 0 || l.EndIndex >= len(samples) || l.StartIndex > l.EndIndex {
			continue
		}

		start := samples[l.StartIndex].Timestamp
		end := samples[l.EndIndex].Timestamp
		for _, ts := range []time.Time{start, end} {
			x := p.posX(ts)
			line := canvas.NewLine(colorLock)
			line.Position1 = fyne.NewPos(x, p.y)
			line.Position2 = fyne.NewPos(x, p.y+p.height)
			line.StrokeWidth = 1
			r.lockLines = append(r.lockLines, line)
			r.objects = append(r.objects, line)
		}

		label := formatFrequency(l.FrequencyHz) + " ±" + formatPercent(l.MaxErrorPercent)
		text := canvas.NewText(label, colorLock)
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(p.posX(start.Add(end.Sub(start)/2))-30, p.y+5))
		r.lockLabels = append(r.lockLabels, text)
		r.objects = append(r.objects, text)
	}
}

// drawValues draws the latest generated and measured values above the plot.
func (r *scopeRenderer) drawValues(p plotArea, last sample.Sample, locked bool) {
	text := canvas.NewText(valuesText(last, locked), color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(p.x+10, p.y-22))
	r.valueLabel = text
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func valuesText(s sample.Sample, locked bool) string {
	str := "Gen " + formatFrequency(s.GeneratedHz) + " " + formatPercent(s.GeneratedDuty)
	if s.Stale {
		return str + " | Probe: stale " + formatFrequency(s.MeasuredHz)
	}
	if !s.HasSignal() {
		return str + " | Probe: no signal"
	}
	str += " | Probe " + formatFrequency(s.MeasuredHz) + " " + formatPercent(s.MeasuredDuty)
	str += " | Err " + formatPercent(s.ErrorPercent)
	if locked {
		str += " | LOCKED"
	}
	return str
}

func formatValue(v float64, trace Trace) string {
	if trace == TraceDuty {
		return formatPercent(v)
	}
	return formatFrequency(v)
}

func formatFrequency(hz float64) string {
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'f', 2, 64) + " kHz"
	}
	return strconv.FormatFloat(hz, 'f', 1, 64) + " Hz"
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}
