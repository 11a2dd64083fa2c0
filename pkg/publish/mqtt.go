// Package publish pushes potentiometer readings to an MQTT broker.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/sailpot/pkg/config"
	"github.com/itohio/sailpot/pkg/link"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("publish timed out")

// disconnectQuiesce is how long Disconnect waits for in-flight work, in ms.
const disconnectQuiesce = 250

// Publisher sends each reading as a decimal payload to one topic.
type Publisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewClientOptions builds paho options from cfg.
func NewClientOptions(cfg *config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.Timeout)
	return opts
}

// Connect dials the broker, retrying with exponential backoff up to cfg.Retries attempts.
func Connect(ctx context.Context, cfg *config.MQTTConfig) (*Publisher, error) {
	opts := NewClientOptions(cfg)

	var client mqtt.Client
	connect := func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("Failed to connect to MQTT broker %s: %v", cfg.Broker, token.Error())
			return token.Error()
		}
		return nil
	}

	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx)

	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	log.Printf("Connected to MQTT broker at %s", cfg.Broker)

	return NewPublisher(client, cfg), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client mqtt.Client, cfg *config.MQTTConfig) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: timeout,
	}
}

// Payload returns the MQTT payload for a value: decimal digits, no terminator.
func Payload(value uint16) []byte {
	return strconv.AppendUint(nil, uint64(value), 10)
}

// Send publishes one reading and waits for the token.
func (p *Publisher) Send(ctx context.Context, r link.Reading) error {
	token := p.client.Publish(p.topic, p.qos, false, Payload(r.Value))

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: topic %s", ErrTimeout, p.topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
		log.Println("MQTT connection closed")
	}
	return nil
}
