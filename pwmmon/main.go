package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/scope"
	"github.com/itohio/pwmc/pkg/track"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated board instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
		headlessFlag       = flag.Bool("headless", false, "Log readings to stdout instead of opening a window")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Track.AverageSamples = *averageSamplesFlag
	}

	if *headlessFlag {
		if err := runHeadless(cfg, *mockFlag); err != nil {
			log.Fatalf("Headless run failed: %v", err)
		}
		return
	}

	application := app.NewWithID("com.itohio.pwmc")

	window := application.NewWindow("PWM Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		tracker:    track.New(cfg),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)
	state.inputs = newInputsPanel(state)

	// Register the scope callback once; it survives reconnects
	state.tracker.OnUpdate(state.onTrackerUpdate)

	window.SetContent(container.NewBorder(
		toolbar,
		nil,
		nil,
		state.inputs.container,
		state.scopeWidget,
	))
	window.SetOnClosed(func() {
		closeChain(state.chain)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      link.Device
	tracker     *track.Tracker
	scopeWidget *scope.ScopeWidget
	inputs      *inputsPanel
	window      fyne.Window
	connectBtn  *widget.Button
	useMock     bool
	chain       *trackingChain // Current chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect, Settings and trace selection.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	traceSelect := widget.NewSelect(scope.Traces, func(selected string) {
		if state.scopeWidget != nil {
			state.scopeWidget.SetTrace(scope.ParseTrace(selected))
		}
	})
	traceSelect.SetSelected(scope.TraceFrequency.String())

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		traceSelect, // right
		nil,         // center (spacer)
	)
}

// onTrackerUpdate pushes tracker data to the scope, throttled to ~60 FPS.
func (state *appState) onTrackerUpdate(samples []sample.Sample, locks []track.Lock) {
	const updateInterval = 16 * time.Millisecond

	state.updateMu.Lock()
	now := time.Now()
	if now.Sub(state.lastUpdateTime) < updateInterval {
		state.updateMu.Unlock()
		return
	}
	state.lastUpdateTime = now
	state.updateMu.Unlock()

	fyne.Do(func() {
		state.scopeWidget.UpdateData(samples, locks)
	})
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		return
	}

	name := describe(state.cfg, state.useMock)
	device := newDevice(state.cfg, state.useMock)

	chain, err := startChain(state.cfg, device, state.tracker, nil)
	if err != nil {
		dialog.ShowError(fmt.Errorf("%s: %w", name, err), state.window)
		return
	}
	state.device = device
	state.chain = chain
	state.connectBtn.SetIcon(theme.LogoutIcon())
	fmt.Printf("Connected to %s\n", name)

	state.inputs.attach(device)
}

// disconnect gracefully closes the tracking chain.
func disconnect(state *appState) {
	closeChain(state.chain)
	state.chain = nil
	state.device = nil
	state.connectBtn.SetIcon(theme.LoginIcon())
	state.inputs.attach(nil)
	fmt.Printf("Disconnected from %s\n", describe(state.cfg, state.useMock))
}

// reconnect restarts the chain so configuration changes take effect.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	disconnect(state)
	handleConnect(state)
}
