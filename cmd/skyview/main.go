// Command skyview shows a full-screen star map that scrolls while the boat's
// potentiometer is turned away from centre. Values arrive over UDP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/itohio/sailpot/pkg/config"
	"github.com/itohio/sailpot/pkg/relay"
	"github.com/itohio/sailpot/pkg/sky"
	"github.com/itohio/sailpot/pkg/skyview"
)

// frameInterval paces scrolling; speeds are in pixels per frame.
const frameInterval = 16 * time.Millisecond // ~60 FPS

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		listenFlag = flag.String("listen", "", "UDP listen address override (e.g., 0.0.0.0:5656)")
		windowFlag = flag.Bool("window", false, "Run in a window instead of full screen")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenFlag != "" {
		cfg.Relay.Listen = *listenFlag
	}
	if cfg.Relay.Listen == "" {
		cfg.Relay.Listen = relay.DefaultAddr
	}

	server, err := relay.Listen(cfg.Relay.Listen, log.Default())
	if err != nil {
		log.Fatalf("Failed to listen for sensor data: %v", err)
	}
	defer server.Close()

	stars := skyview.NewStarMap(cfg.Sky.Width, cfg.Sky.Height, cfg.Sky.Stars, cfg.Sky.Seed)
	scroller, err := sky.New(&cfg.Sky, cfg.Sky.Width)
	if err != nil {
		log.Fatalf("Invalid sky configuration: %v", err)
	}

	application := app.NewWithID("com.itohio.sailpot")
	window := application.NewWindow("Potentiometer Sky Scrolling")
	skyWidget := skyview.New(stars)
	window.SetContent(skyWidget)
	if *windowFlag {
		window.Resize(fyne.NewSize(1280, 720))
		window.CenterOnScreen()
	} else {
		window.SetFullScreen(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("UDP listener stopped: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				offset := scroller.Update(server.Value())
				fyne.Do(func() {
					skyWidget.SetOffset(offset)
				})
			}
		}
	}()

	window.ShowAndRun()
}
