package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/itohio/pwmc/pkg/config"
	"github.com/itohio/pwmc/pkg/link"
	"github.com/itohio/pwmc/pkg/sample"
	"github.com/itohio/pwmc/pkg/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.Loop.Period = 5 * time.Millisecond
	cfg.Mock.SweepPeriod = 0
	cfg.Mock.X = 4095
	cfg.Track.MinLockDuration = 20 * time.Millisecond
	return cfg
}

func TestNewDevice(t *testing.T) {
	cfg := mockConfig()

	_, ok := newDevice(cfg, true).(*link.Mock)
	assert.True(t, ok)
	_, ok = newDevice(cfg, false).(*link.Serial)
	assert.True(t, ok)

	assert.Equal(t, "mocked device", describe(cfg, true))
	assert.Equal(t, "serial port /dev/ttyACM0", describe(cfg, false))
}

func TestChain_MockLocks(t *testing.T) {
	cfg := mockConfig()
	tracker := track.New(cfg)

	var mu sync.Mutex
	var readings int
	chain, err := startChain(cfg, newDevice(cfg, true), tracker, func(link.Reading) {
		mu.Lock()
		readings++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Eventually(t, tracker.Locked, 2*time.Second, 5*time.Millisecond)

	closeChain(chain)

	locks := tracker.Locks()
	require.NotEmpty(t, locks)
	assert.InDelta(t, 10000.0, locks[0].FrequencyHz, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, readings, 0)
	assert.False(t, chain.device.IsConnected())
}

func TestChain_Averaging(t *testing.T) {
	cfg := mockConfig()
	cfg.Track.AverageSamples = 4
	tracker := track.New(cfg)

	updates := make(chan []sample.Sample, 100)
	tracker.OnUpdate(func(samples []sample.Sample, locks []track.Lock) {
		select {
		case updates <- samples:
		default:
		}
	})

	chain, err := startChain(cfg, newDevice(cfg, true), tracker, nil)
	require.NoError(t, err)

	select {
	case samples := <-updates:
		assert.InDelta(t, 10000.0, samples[len(samples)-1].GeneratedHz, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no tracker update")
	}

	closeChain(chain)
}

func TestChain_ConnectError(t *testing.T) {
	cfg := mockConfig()
	cfg.Serial.Port = "/dev/does-not-exist"

	chain, err := startChain(cfg, newDevice(cfg, false), track.New(cfg), nil)
	assert.Error(t, err)
	assert.Nil(t, chain)
}

func TestHeadless_StopsOnCancel(t *testing.T) {
	cfg := mockConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	device := newDevice(cfg, true)

	done := make(chan error, 1)
	go func() {
		done <- headless(ctx, cfg, device, "mocked device")
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("headless did not stop after cancellation")
	}
	assert.False(t, device.IsConnected())
}
