// Package potlink implements the potentiometer sample-and-transmit loop and its
// newline-terminated decimal wire format.
//
// The package only depends on packages TinyGo supports, so the same loop runs
// on the controller (see firmware/) and on a host (see cmd/potsim).
package potlink

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"
)

const (
	// BaudRate is the serial link speed.
	BaudRate = 115200
	// DefaultInterval is the pause between two samples.
	DefaultInterval = 100 * time.Millisecond
)

// ADC is a single analog input channel.
// Get returns a 16-bit reading (0-65535) regardless of the hardware resolution.
type ADC interface {
	Get() uint16
}

// Sampler reads one ADC channel and writes every reading to a serial output.
type Sampler struct {
	adc      ADC
	out      io.Writer
	logger   *log.Logger
	interval time.Duration

	buf [MaxMessageLen]byte
}

// New creates a Sampler. A nil logger disables the diagnostic output and a
// non-positive interval falls back to DefaultInterval.
func New(adc ADC, out io.Writer, logger *log.Logger, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Sampler{
		adc:      adc,
		out:      out,
		logger:   logger,
		interval: interval,
	}
}

// Interval returns the pause between two samples.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Step performs one iteration without the pause: one ADC read, one write,
// one diagnostic line. The value is returned even when the write fails.
func (s *Sampler) Step() (uint16, error) {
	value := s.adc.Get()

	msg := AppendMessage(s.buf[:0], value)
	if _, err := s.out.Write(msg); err != nil {
		return value, fmt.Errorf("failed to send value %d: %w", value, err)
	}

	if s.logger != nil {
		s.logger.Printf("Value sent: %d", value)
	}

	return value, nil
}

// Run repeats Step followed by the pause until a write fails or ctx is done.
// There is no retry: the first write error ends the loop.
func (s *Sampler) Run(ctx context.Context) error {
	for {
		if _, err := s.Step(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}
