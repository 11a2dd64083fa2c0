//go:build rp2040

package main

import (
	"machine"

	"github.com/itohio/sailpot/pkg/potlink"
)

const (
	// Potentiometer wiper on GP26 (ADC0).
	PIN_POT = machine.ADC0

	// Serial link speed, must match the receiving host.
	UART_BAUD_RATE = potlink.BaudRate

	// Pause between samples; matches the receiver's reading speed.
	SAMPLE_INTERVAL = potlink.DefaultInterval
)
