package link

import (
	"time"

	"github.com/itohio/pwmc/pkg/input"
	"github.com/itohio/pwmc/pkg/status"
)

// Error is a link error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrAlreadyConnected = Error("already connected")
	ErrNotConnected     = Error("not connected")
	ErrClosing          = Error("still closing")
	ErrUnsupported      = Error("not supported by device")
)

// Reading is one status report as received by the host.
type Reading struct {
	Timestamp time.Time
	status.Report
}

// Device defines the interface for boards (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	IsConnected() bool
}

// Controller is implemented by devices whose operator inputs can be driven
// from the host.
type Controller interface {
	SetInputs(in input.Inputs) error
	Inputs() input.Inputs
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device and Controller.
var (
	_ Device     = (*Mock)(nil)
	_ Controller = (*Mock)(nil)
)
