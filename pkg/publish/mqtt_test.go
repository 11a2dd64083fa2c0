package publish

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/sailpot/pkg/config"
	"github.com/itohio/sailpot/pkg/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToken is a completed or pending mqtt.Token.
type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(complete bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes. Methods not overridden panic through the nil interface.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	publishes    []published
	token        mqtt.Token
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishes = append(c.publishes, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
	c.connected = false
}

func testConfig() *config.MQTTConfig {
	cfg := config.Default().MQTT
	cfg.Topic = "boat/pot"
	cfg.QoS = 1
	cfg.Timeout = 100 * time.Millisecond
	return &cfg
}

func TestPayload(t *testing.T) {
	assert.Equal(t, "0", string(Payload(0)))
	assert.Equal(t, "65535", string(Payload(65535)))
	assert.Equal(t, "32768", string(Payload(32768)))
}

func TestPublisher_Send(t *testing.T) {
	client := &fakeClient{token: newToken(true, nil)}
	p := NewPublisher(client, testConfig())

	err := p.Send(context.Background(), link.Reading{Value: 4242})
	require.NoError(t, err)

	require.Len(t, client.publishes, 1)
	got := client.publishes[0]
	assert.Equal(t, "boat/pot", got.topic)
	assert.Equal(t, byte(1), got.qos)
	assert.False(t, got.retained)
	assert.Equal(t, "4242", string(got.payload))
}

func TestPublisher_SendError(t *testing.T) {
	errBroker := errors.New("not authorized")
	client := &fakeClient{token: newToken(true, errBroker)}
	p := NewPublisher(client, testConfig())

	err := p.Send(context.Background(), link.Reading{Value: 1})
	assert.ErrorIs(t, err, errBroker)
}

func TestPublisher_SendTimeout(t *testing.T) {
	client := &fakeClient{token: newToken(false, nil)}
	p := NewPublisher(client, testConfig())

	start := time.Now()
	err := p.Send(context.Background(), link.Reading{Value: 1})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestPublisher_SendCancelled(t *testing.T) {
	client := &fakeClient{token: newToken(false, nil)}
	cfg := testConfig()
	cfg.Timeout = time.Minute
	p := NewPublisher(client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, link.Reading{Value: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_Close(t *testing.T) {
	client := &fakeClient{connected: true}
	p := NewPublisher(client, testConfig())

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)

	client.disconnected = false
	require.NoError(t, p.Close())
	assert.False(t, client.disconnected, "Close on a disconnected client does nothing")
}

func TestNewClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Username = "boat"
	cfg.Password = "secret"

	opts := NewClientOptions(cfg)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "localhost:1883", opts.Servers[0].Host)
	assert.Equal(t, cfg.ClientID, opts.ClientID)
	assert.Equal(t, "boat", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.CleanSession)
}

func TestConnect_GivesUp(t *testing.T) {
	// Grab a free port and release it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig()
	cfg.Broker = "tcp://" + addr
	cfg.Retries = 2
	cfg.Timeout = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := Connect(ctx, cfg)
	assert.Error(t, err)
	assert.Nil(t, p)
}
