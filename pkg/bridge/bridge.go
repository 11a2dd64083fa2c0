// Package bridge forwards readings from a link.Device to any number of sinks.
package bridge

import (
	"context"
	"log"
	"time"

	"github.com/itohio/sailpot/pkg/link"
	"github.com/itohio/sailpot/pkg/metrics"
)

// DefaultSendTimeout bounds a single sink delivery.
const DefaultSendTimeout = time.Second

// Sink receives readings.
type Sink interface {
	Send(ctx context.Context, r link.Reading) error
}

type namedSink struct {
	name string
	sink Sink
}

// Bridge reads a device and fans every reading out to its sinks in order.
type Bridge struct {
	device      link.Device
	sinks       []namedSink
	metrics     *metrics.Metrics
	logger      *log.Logger
	sendTimeout time.Duration
}

// New creates a Bridge. m may be nil.
func New(device link.Device, m *metrics.Metrics, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		device:      device,
		metrics:     m,
		logger:      logger,
		sendTimeout: DefaultSendTimeout,
	}
}

// AddSink registers a sink under a name used in logs and metrics.
func (b *Bridge) AddSink(name string, s Sink) *Bridge {
	b.sinks = append(b.sinks, namedSink{name: name, sink: s})
	return b
}

// Run forwards readings until ctx is done or the device stops producing.
// Sink failures are logged and counted; they never stop the bridge.
func (b *Bridge) Run(ctx context.Context) error {
	samples := b.device.Samples()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-samples:
			if !ok {
				b.logger.Printf("Device stream ended")
				return nil
			}
			b.forward(ctx, r)
		}
	}
}

func (b *Bridge) forward(ctx context.Context, r link.Reading) {
	b.logger.Printf("Received value: %d", r.Value)
	if b.metrics != nil {
		b.metrics.Observe(r.Value)
	}

	for _, ns := range b.sinks {
		sctx, cancel := context.WithTimeout(ctx, b.sendTimeout)
		err := ns.sink.Send(sctx, r)
		cancel()

		if err != nil {
			b.logger.Printf("Failed to forward value %d to %s: %v", r.Value, ns.name, err)
		}
		if b.metrics != nil {
			b.metrics.Delivered(ns.name, err)
		}
	}
}
