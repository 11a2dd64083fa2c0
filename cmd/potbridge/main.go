// Command potbridge reads potentiometer values from the controller's serial
// link and forwards them to the sky viewer over UDP, to MQTT, and to Prometheus.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/sailpot/pkg/bridge"
	"github.com/itohio/sailpot/pkg/config"
	"github.com/itohio/sailpot/pkg/link"
	"github.com/itohio/sailpot/pkg/metrics"
	"github.com/itohio/sailpot/pkg/publish"
	"github.com/itohio/sailpot/pkg/relay"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyUSB0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		listFlag   = flag.Bool("list", false, "List serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		ports, err := link.Ports()
		if err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		for _, p := range ports {
			log.Printf("%s\t%s", p.Name, p.Description)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var device link.Device
	if *mockFlag {
		device = link.NewMock(&cfg.Mock)
		log.Println("Using mocked device")
	} else {
		device = link.New(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.Buffer)
	}
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer device.Close()

	m := metrics.New()
	b := bridge.New(device, m, log.Default())

	if cfg.Relay.Target != "" {
		sender, err := relay.Dial(cfg.Relay.Target)
		if err != nil {
			log.Fatalf("Failed to set up UDP relay: %v", err)
		}
		defer sender.Close()
		b.AddSink("udp", sender)
		log.Printf("Relaying to udp://%s", cfg.Relay.Target)
	}

	if cfg.MQTT.Enabled {
		pub, err := publish.Connect(ctx, &cfg.MQTT)
		if err != nil {
			log.Fatalf("Failed to set up MQTT: %v", err)
		}
		defer pub.Close()
		b.AddSink("mqtt", pub)
	}

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		log.Printf("Serving metrics on %s/metrics", cfg.Metrics.Listen)
	}

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Bridge stopped: %v", err)
	}
}
