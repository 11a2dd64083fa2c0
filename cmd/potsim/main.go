// Command potsim runs the potentiometer sampler on a host, with a simulated
// knob, so the bridge and viewer can be exercised without a controller.
//
// Usage: potsim -p /dev/pts/3 (or -stdout)
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/sailpot/pkg/config"
	"github.com/itohio/sailpot/pkg/link"
	"github.com/itohio/sailpot/pkg/potlink"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., /dev/ttyUSB0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		stdoutFlag   = flag.Bool("stdout", false, "Write samples to stdout instead of a serial port")
		intervalFlag = flag.Duration("interval", 0, "Pause between samples (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *intervalFlag > 0 {
		cfg.Sampler.Interval = *intervalFlag
	}

	if err := run(cfg, *stdoutFlag); err != nil {
		log.Fatalf("Sampler stopped: %v", err)
	}
}

func run(cfg *config.Config, toStdout bool) error {
	var out io.Writer = os.Stdout
	if !toStdout {
		port, err := link.OpenPort(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()
		out = port
		log.Printf("Sending samples to %s at %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Diagnostics go to stderr so -stdout stays a clean wire stream.
	console := log.New(os.Stderr, "", log.LstdFlags)
	sampler := potlink.New(link.NewSweepADC(&cfg.Mock), out, console, cfg.Sampler.Interval)

	if err := sampler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
