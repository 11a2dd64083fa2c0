//go:build rp2040

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"log"
	"machine"
	"os"

	"github.com/itohio/sailpot/pkg/potlink"
)

var (
	potentiometer machine.ADC
	uart          = machine.UART0 // GP0 (TX) / GP1 (RX)
)

func main() {
	machine.InitADC()

	potentiometer = machine.ADC{Pin: PIN_POT}
	potentiometer.Configure(machine.ADCConfig{})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Diagnostics go to the USB console, samples go to UART0.
	console := log.New(os.Stdout, "", 0)

	sampler := potlink.New(&potentiometer, uart, console, SAMPLE_INTERVAL)

	// Never returns unless a UART write fails; halt the controller then.
	if err := sampler.Run(context.Background()); err != nil {
		panic(err)
	}
}
