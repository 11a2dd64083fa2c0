package link

import (
	"errors"
	"time"
)

var (
	// ErrAlreadyConnected is returned by Connect on a connected device.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNotConnected is returned by operations that need an open link.
	ErrNotConnected = errors.New("not connected")
)

// Reading is one potentiometer value received from the controller.
type Reading struct {
	Timestamp time.Time // Host receive time
	Value     uint16    // 16-bit ADC reading (0-65535)
}

// Device defines the interface for potentiometer links (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan Reading
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
