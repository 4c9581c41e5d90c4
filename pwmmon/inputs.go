package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/link"
)

// inputsPanel drives the joystick and buttons of a board that accepts
// host-side inputs. It stays hidden for boards that do not.
type inputsPanel struct {
	state      *appState
	controller link.Controller

	x, y      *widget.Slider
	xLabel    *widget.Label
	yLabel    *widget.Label
	increment *widget.Check
	decrement *widget.Check
	container fyne.CanvasObject

	// set while widgets are updated from the controller
	syncing bool
}

func newInputsPanel(state *appState) *inputsPanel {
	p := &inputsPanel{state: state}
	full := float64(state.cfg.Generator.FullScale)

	p.xLabel = widget.NewLabel("")
	p.yLabel = widget.NewLabel("")

	p.x = widget.NewSlider(0, full)
	p.x.Orientation = widget.Vertical
	p.x.OnChanged = func(float64) { p.apply() }

	p.y = widget.NewSlider(0, full)
	p.y.Orientation = widget.Vertical
	p.y.OnChanged = func(float64) { p.apply() }

	p.increment = widget.NewCheck("A +duty", func(bool) { p.apply() })
	p.decrement = widget.NewCheck("B -duty", func(bool) { p.apply() })

	sliders := container.NewGridWithColumns(2,
		container.NewBorder(widget.NewLabel("X freq"), p.xLabel, nil, nil, p.x),
		container.NewBorder(widget.NewLabel("Y duty"), p.yLabel, nil, nil, p.y),
	)
	p.container = container.NewBorder(nil, container.NewVBox(p.increment, p.decrement), nil, nil, sliders)

	p.attach(nil)
	return p
}

// attach binds the panel to device, or hides it when device cannot be
// driven from the host.
func (p *inputsPanel) attach(device link.Device) {
	controller, ok := device.(link.Controller)
	if !ok {
		p.controller = nil
		p.container.Hide()
		return
	}

	p.controller = controller
	p.show(controller.Inputs())
	p.container.Show()
}

func (p *inputsPanel) show(in input.Inputs) {
	p.syncing = true
	defer func() { p.syncing = false }()

	p.x.SetValue(float64(in.X))
	p.y.SetValue(float64(in.Y))
	p.increment.SetChecked(in.Increment)
	p.decrement.SetChecked(in.Decrement)
	p.labels(in)
}

func (p *inputsPanel) labels(in input.Inputs) {
	p.xLabel.SetText(fmt.Sprintf("%d", in.X))
	p.yLabel.SetText(fmt.Sprintf("%d", in.Y))
}

// apply sends the widget state to the controller.
func (p *inputsPanel) apply() {
	if p.syncing || p.controller == nil {
		return
	}

	in := input.Inputs{
		X:         uint16(p.x.Value),
		Y:         uint16(p.y.Value),
		Increment: p.increment.Checked,
		Decrement: p.decrement.Checked,
	}
	p.labels(in)

	if err := p.controller.SetInputs(in); err != nil {
		dialog.ShowError(fmt.Errorf("failed to set inputs: %w", err), p.state.window)
	}
}
