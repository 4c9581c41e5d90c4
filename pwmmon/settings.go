package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/track"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createGeneratorTab(state),
		createTrackingTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig validates and writes the configuration, reporting failures.
// An invalid configuration is rolled back to prev.
func saveConfig(state *appState, prev config.Config) bool {
	if err := state.cfg.Validate(); err != nil {
		*state.cfg = prev
		dialog.ShowError(err, state.window)
		return false
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if portSelect.Selected == "" {
				return
			}
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected // Fallback to selected text
			}

			changed := state.cfg.Serial.Port != selectedPort
			state.cfg.Serial.Port = selectedPort
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud != state.cfg.Serial.BaudRate {
				state.cfg.Serial.BaudRate = baud
				changed = true
			}
			if !saveConfig(state, prev) {
				return
			}

			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createGeneratorTab creates the Generator tab. The values only drive the
// simulated board; real firmware has them compiled in.
func createGeneratorTab(state *appState) *container.TabItem {
	g := &state.cfg.Generator

	clockEntry := widget.NewEntry()
	clockEntry.SetText(strconv.FormatUint(uint64(g.ClockHz), 10))

	minEntry := widget.NewEntry()
	minEntry.SetText(strconv.FormatUint(uint64(g.MinHz), 10))

	maxEntry := widget.NewEntry()
	maxEntry.SetText(strconv.FormatUint(uint64(g.MaxHz), 10))

	stepEntry := widget.NewEntry()
	stepEntry.SetText(strconv.FormatUint(uint64(g.Step), 10))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Loop.Period.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Counter Clock (Hz)", Widget: clockEntry},
			{Text: "Min Frequency (Hz)", Widget: minEntry},
			{Text: "Max Frequency (Hz)", Widget: maxEntry},
			{Text: "Button Step (ticks)", Widget: stepEntry},
			{Text: "Loop Period", Widget: periodEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if v, err := strconv.ParseUint(clockEntry.Text, 10, 32); err == nil {
				g.ClockHz = uint32(v)
			}
			if v, err := strconv.ParseUint(minEntry.Text, 10, 32); err == nil {
				g.MinHz = uint32(v)
			}
			if v, err := strconv.ParseUint(maxEntry.Text, 10, 32); err == nil {
				g.MaxHz = uint32(v)
			}
			if v, err := strconv.ParseUint(stepEntry.Text, 10, 32); err == nil {
				g.Step = uint32(v)
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Loop.Period = d
			}
			if saveConfig(state, prev) && state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Generator", form)
}

// createTrackingTab creates the Tracking configuration tab.
func createTrackingTab(state *appState) *container.TabItem {
	t := &state.cfg.Track

	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.1f", t.WindowSeconds))

	toleranceEntry := widget.NewEntry()
	toleranceEntry.SetText(fmt.Sprintf("%.2f", t.TolerancePercent))

	minLockEntry := widget.NewEntry()
	minLockEntry.SetText(t.MinLockDuration.String())

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(t.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Lock Tolerance (%)", Widget: toleranceEntry},
			{Text: "Min Lock Duration", Widget: minLockEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if ws, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil {
				t.WindowSeconds = ws
			}
			if tol, err := strconv.ParseFloat(toleranceEntry.Text, 64); err == nil {
				t.TolerancePercent = tol
			}
			if d, err := time.ParseDuration(minLockEntry.Text); err == nil {
				t.MinLockDuration = d
			}
			if avg, err := strconv.Atoi(averageEntry.Text); err == nil {
				t.AverageSamples = avg
			}
			if !saveConfig(state, prev) {
				return
			}

			// Recreate the tracker with the new window and restart the chain
			connected := state.device != nil && state.device.IsConnected()
			if connected {
				disconnect(state)
			}
			state.tracker = track.New(state.cfg)
			state.tracker.OnUpdate(state.onTrackerUpdate)
			if connected {
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Tracking", form)
}

// createMockTab creates the simulated board configuration tab.
func createMockTab(state *appState) *container.TabItem {
	m := &state.cfg.Mock

	modeSelect := widget.NewSelect([]string{config.ProbeLoopback, config.ProbeFixed, config.ProbeNone}, nil)
	modeSelect.SetSelected(m.Probe.Mode)

	freqEntry := widget.NewEntry()
	freqEntry.SetText(fmt.Sprintf("%.1f", m.Probe.FrequencyHz))

	dutyEntry := widget.NewEntry()
	dutyEntry.SetText(fmt.Sprintf("%.1f", m.Probe.DutyPercent))

	sweepEntry := widget.NewEntry()
	sweepEntry.SetText(m.SweepPeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Probe Input", Widget: modeSelect},
			{Text: "Fixed Probe Frequency (Hz)", Widget: freqEntry},
			{Text: "Fixed Probe Duty (%)", Widget: dutyEntry},
			{Text: "X Sweep Period (0 = off)", Widget: sweepEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if modeSelect.Selected != "" {
				m.Probe.Mode = modeSelect.Selected
			}
			if f, err := strconv.ParseFloat(freqEntry.Text, 32); err == nil {
				m.Probe.FrequencyHz = float32(f)
			}
			if d, err := strconv.ParseFloat(dutyEntry.Text, 32); err == nil {
				m.Probe.DutyPercent = float32(d)
			}
			if d, err := time.ParseDuration(sweepEntry.Text); err == nil {
				m.SweepPeriod = d
			}
			if saveConfig(state, prev) && state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
