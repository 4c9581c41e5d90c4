package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/waveform"
)

// Probe source modes of the mock board.
const (
	ProbeLoopback = "loopback" // probe wired to the generator output
	ProbeFixed    = "fixed"    // external signal with fixed frequency and duty
	ProbeNone     = "none"     // nothing connected
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Generator GeneratorConfig `yaml:"generator"`
	Loop      LoopConfig      `yaml:"loop"`
	Track     TrackConfig     `yaml:"track"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// GeneratorConfig contains the waveform generator constants.
type GeneratorConfig struct {
	ClockHz   uint32 `yaml:"clock_hz"`
	MinHz     uint32 `yaml:"min_hz"`
	MaxHz     uint32 `yaml:"max_hz"`
	FullScale uint16 `yaml:"full_scale"` // largest raw ADC sample
	Step      uint32 `yaml:"step"`       // button nudge in counter ticks
}

// LoopConfig contains the control loop cadence.
type LoopConfig struct {
	Period time.Duration `yaml:"period"`
}

// TrackConfig contains host-side tracking parameters.
type TrackConfig struct {
	WindowSeconds    float64       `yaml:"window_seconds"`
	TolerancePercent float64       `yaml:"tolerance_percent"` // probe vs generator frequency error counted as locked
	MinLockDuration  time.Duration `yaml:"min_lock_duration"`
	AverageSamples   int           `yaml:"average_samples"` // Number of samples to average (0 = disabled, default)
}

// MockConfig contains mock board configuration.
type MockConfig struct {
	X           uint16        `yaml:"x_raw"`
	Y           uint16        `yaml:"y_raw"`
	Increment   bool          `yaml:"increment"`
	Decrement   bool          `yaml:"decrement"`
	SweepPeriod time.Duration `yaml:"sweep_period"` // X joystick triangle sweep, 0 = no sweep
	Probe       ProbeConfig   `yaml:"probe"`
}

// ProbeConfig selects the signal seen by the mock probe input.
type ProbeConfig struct {
	Mode        string  `yaml:"mode"`
	FrequencyHz float32 `yaml:"frequency_hz"`
	DutyPercent float32 `yaml:"duty_percent"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // "COM3" on Windows
			BaudRate: 115200,
		},
		Generator: GeneratorConfig{
			ClockHz:   waveform.DefaultParams.ClockHz,
			MinHz:     input.DefaultRange.MinHz,
			MaxHz:     input.DefaultRange.MaxHz,
			FullScale: input.DefaultRange.FullScale,
			Step:      waveform.DefaultParams.Step,
		},
		Loop: LoopConfig{
			Period: 200 * time.Millisecond,
		},
		Track: TrackConfig{
			WindowSeconds:    30,
			TolerancePercent: 2,
			MinLockDuration:  time.Second,
			AverageSamples:   0, // No averaging by default
		},
		Mock: MockConfig{
			X:           2048,
			Y:           2048,
			SweepPeriod: 20 * time.Second,
			Probe: ProbeConfig{
				Mode:        ProbeLoopback,
				FrequencyHz: 1000,
				DutyPercent: 50,
			},
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no usable default. Zero values are
// replaced by defaults on Load; negative ones are rejected.
func (c *Config) Validate() error {
	if c.Serial.BaudRate < 0 {
		return fmt.Errorf("serial: negative baud_rate %d", c.Serial.BaudRate)
	}
	if c.Loop.Period < 0 {
		return fmt.Errorf("loop: negative period %v", c.Loop.Period)
	}
	if c.Track.WindowSeconds < 0 {
		return fmt.Errorf("track: negative window_seconds %v", c.Track.WindowSeconds)
	}
	if c.Track.TolerancePercent < 0 {
		return fmt.Errorf("track: negative tolerance_percent %v", c.Track.TolerancePercent)
	}
	if c.Track.MinLockDuration < 0 {
		return fmt.Errorf("track: negative min_lock_duration %v", c.Track.MinLockDuration)
	}
	if c.Track.AverageSamples < 0 {
		return fmt.Errorf("track: negative average_samples %d", c.Track.AverageSamples)
	}
	if c.Mock.SweepPeriod < 0 {
		return fmt.Errorf("mock: negative sweep_period %v", c.Mock.SweepPeriod)
	}
	if c.Mock.Probe.FrequencyHz < 0 {
		return fmt.Errorf("mock: negative probe frequency_hz %v", c.Mock.Probe.FrequencyHz)
	}
	if c.Generator.MaxHz < c.Generator.MinHz {
		return fmt.Errorf("generator: max_hz %d below min_hz %d", c.Generator.MaxHz, c.Generator.MinHz)
	}
	switch c.Mock.Probe.Mode {
	case ProbeLoopback, ProbeFixed, ProbeNone:
	default:
		return fmt.Errorf("mock: unknown probe mode %q", c.Mock.Probe.Mode)
	}
	if c.Mock.Probe.DutyPercent < 0 || c.Mock.Probe.DutyPercent > 100 {
		return fmt.Errorf("mock: probe duty_percent %v outside 0..100", c.Mock.Probe.DutyPercent)
	}
	return nil
}

// Range returns the analog input mapping.
func (c *Config) Range() input.Range {
	return input.Range{
		MinHz:     c.Generator.MinHz,
		MaxHz:     c.Generator.MaxHz,
		FullScale: c.Generator.FullScale,
	}
}

// Params returns the generator constants.
func (c *Config) Params() waveform.Params {
	return waveform.Params{
		ClockHz: c.Generator.ClockHz,
		Step:    c.Generator.Step,
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Generator.ClockHz == 0 {
		c.Generator.ClockHz = def.Generator.ClockHz
	}
	if c.Generator.MinHz == 0 {
		c.Generator.MinHz = def.Generator.MinHz
	}
	if c.Generator.MaxHz == 0 {
		c.Generator.MaxHz = def.Generator.MaxHz
	}
	if c.Generator.FullScale == 0 {
		c.Generator.FullScale = def.Generator.FullScale
	}
	if c.Generator.Step == 0 {
		c.Generator.Step = def.Generator.Step
	}

	if c.Loop.Period == 0 {
		c.Loop.Period = def.Loop.Period
	}

	if c.Track.WindowSeconds == 0 {
		c.Track.WindowSeconds = def.Track.WindowSeconds
	}
	if c.Track.TolerancePercent == 0 {
		c.Track.TolerancePercent = def.Track.TolerancePercent
	}
	if c.Track.MinLockDuration == 0 {
		c.Track.MinLockDuration = def.Track.MinLockDuration
	}

	if c.Mock.Probe.Mode == "" {
		c.Mock.Probe.Mode = def.Mock.Probe.Mode
	}
	if c.Mock.Probe.FrequencyHz == 0 {
		c.Mock.Probe.FrequencyHz = def.Mock.Probe.FrequencyHz
	}
}
