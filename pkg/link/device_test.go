package link

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.readings)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	dev := New("/dev/does-not-exist-pwmc", 0, 0)
	err := dev.Connect()
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestSerial_Scan(t *testing.T) {
	dev := New("test", 0, 10)
	stamp := time.Unix(1700000000, 0)
	dev.now = func() time.Time { return stamp }

	input := strings.Join([]string{
		"pwmc: boot",
		"eq: 1000 Hz | Duty: 50.0 %", // partial line after connect
		"Freq: 1000 Hz | Duty: 50.0 % | Probe: 0 Hz | Probe duty: 0.0 % | Wrap: 124999 | Level: 62499",
		"",
		"Freq: 10000 Hz | Duty: 58.0 % | Probe: 10000 Hz | Probe duty: 58.0 % | Wrap: 12499 | Level: 7251",
	}, "\r\n")

	dev.scan(strings.NewReader(input))

	require.Len(t, dev.readings, 2)

	first := <-dev.readings
	assert.Equal(t, stamp, first.Timestamp)
	assert.Equal(t, uint32(1000), first.FrequencyHz)
	assert.Equal(t, uint32(0), first.MeasuredHz)
	assert.Equal(t, uint32(124999), first.Wrap)

	second := <-dev.readings
	assert.Equal(t, uint32(10000), second.FrequencyHz)
	assert.Equal(t, uint32(10000), second.MeasuredHz)
	assert.InDelta(t, 58.0, second.MeasuredDutyPercent, 0.001)
	assert.Equal(t, uint32(7251), second.Level)
}

func TestSerial_ScanDropsWhenFull(t *testing.T) {
	dev := New("test", 0, 1)

	line := "Freq: 50 Hz | Duty: 0.0 % | Probe: 0 Hz | Probe duty: 0.0 %\n"
	dev.scan(strings.NewReader(strings.Repeat(line, 5)))

	assert.Len(t, dev.readings, 1)
}

func TestSerial_ScanStopsWhenCancelled(t *testing.T) {
	dev := New("test", 0, 10)
	dev.cancel()

	line := "Freq: 50 Hz | Duty: 0.0 % | Probe: 0 Hz | Probe duty: 0.0 %\n"
	dev.scan(strings.NewReader(strings.Repeat(line, 5)))

	assert.Len(t, dev.readings, 0)
}
