//go:build rp2040

package main

import (
	"image/color"
	"machine"
	"strconv"
	"time"

	"github.com/itohio/pwmc/pkg/status"
	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var white = color.RGBA{255, 255, 255, 255}

// displaySink shows the latest report on the OLED. Report only hands the
// report over; the slow I2C transfer runs in its own goroutine.
type displaySink struct {
	display ssd1306.Device
	reports chan status.Report
	buf     []byte
}

func newDisplay(bus *machine.I2C) (*displaySink, error) {
	err := bus.Configure(machine.I2CConfig{
		SDA:       PIN_OLED_SDA,
		SCL:       PIN_OLED_SCL,
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		return nil, err
	}
	// the display needs a moment after a cold boot
	time.Sleep(100 * time.Millisecond)

	d := &displaySink{
		display: ssd1306.NewI2C(bus),
		reports: make(chan status.Report, 1),
		buf:     make([]byte, 0, 32),
	}
	d.display.Configure(ssd1306.Config{Width: 128, Height: 64, Address: OLED_ADDRESS, VccState: ssd1306.SWITCHCAPVCC})
	d.display.ClearDisplay()

	return d, nil
}

func (d *displaySink) Report(r status.Report) {
	select {
	case d.reports <- r:
	default:
		// previous report not drawn yet
	}
}

func (d *displaySink) run() {
	for r := range d.reports {
		d.display.ClearBuffer()
		d.line(12, d.generated(r))
		d.line(26, d.measured(r))
		d.line(40, d.counter(r))
		d.display.Display()
	}
}

func (d *displaySink) line(y int16, text []byte) {
	tinyfont.WriteLine(&d.display, &proggy.TinySZ8pt7b, 2, y, string(text), white)
}

func (d *displaySink) generated(r status.Report) []byte {
	b := append(d.buf[:0], "OUT "...)
	b = strconv.AppendUint(b, uint64(r.FrequencyHz), 10)
	b = append(b, "Hz "...)
	b = strconv.AppendFloat(b, float64(r.DutyPercent), 'f', 1, 32)
	return append(b, '%')
}

func (d *displaySink) measured(r status.Report) []byte {
	b := append(d.buf[:0], "IN  "...)
	if r.MeasuredHz == 0 {
		return append(b, "no signal"...)
	}
	if r.Stale {
		b = append(b, "stale "...)
	}
	b = strconv.AppendUint(b, uint64(r.MeasuredHz), 10)
	b = append(b, "Hz "...)
	b = strconv.AppendFloat(b, float64(r.MeasuredDutyPercent), 'f', 1, 32)
	return append(b, '%')
}

func (d *displaySink) counter(r status.Report) []byte {
	b := append(d.buf[:0], "W "...)
	b = strconv.AppendUint(b, uint64(r.Wrap), 10)
	b = append(b, " L "...)
	return strconv.AppendUint(b, uint64(r.Level), 10)
}
