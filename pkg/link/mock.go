package link

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/sailpot/pkg/config"
)

// SweepADC simulates a potentiometer being turned slowly from one end to the
// other and back. It satisfies potlink.ADC.
type SweepADC struct {
	cfg   *config.MockConfig
	start time.Time
	now   func() time.Time
	rnd   *rand.Rand
}

// NewSweepADC creates a SweepADC starting at mid-scale.
func NewSweepADC(cfg *config.MockConfig) *SweepADC {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	return &SweepADC{
		cfg:   cfg,
		start: time.Now(),
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get returns the simulated 16-bit reading for the current time.
func (a *SweepADC) Get() uint16 {
	noise := 0.0
	if a.cfg.NoiseLevel > 0 {
		noise = (a.rnd.Float64()*2 - 1) * a.cfg.NoiseLevel
	}
	return sweepValue(a.now().Sub(a.start), a.cfg.Period, noise)
}

// sweepValue returns the knob position after elapsed time: a sine between 0 and
// 65535 with the given period, offset by noise and clamped to 16 bits.
func sweepValue(elapsed, period time.Duration, noise float64) uint16 {
	if period <= 0 {
		period = time.Second
	}

	phase := 2 * math.Pi * float64(elapsed) / float64(period)
	v := 32767.5 + 32767.5*math.Sin(phase) + noise

	if v < 0 {
		v = 0
	} else if v > math.MaxUint16 {
		v = math.MaxUint16
	}
	return uint16(v + 0.5)
}

// Mock simulates a controller streaming readings, for development without hardware.
type Mock struct {
	cfg *config.MockConfig
	adc *SweepADC

	samples   chan Reading
	mu        sync.RWMutex
	cancel    context.CancelFunc
	connected bool
	used      bool
	done      chan struct{}
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Period:     20 * time.Second,
			NoiseLevel: 64,
			SampleRate: 100 * time.Millisecond,
		}
	}

	return &Mock{
		cfg:       cfg,
		samples:   make(chan Reading, DefaultBufferSize),
		connected: false,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	if m.used {
		m.samples = make(chan Reading, DefaultBufferSize)
	}
	ctx, cancel := context.WithCancel(context.Background())

	m.cancel = cancel
	m.connected = true
	m.used = true
	m.adc = NewSweepADC(m.cfg)
	m.done = make(chan struct{})

	go m.generateSamples(ctx, m.adc, m.samples, m.done)

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}

	m.cancel()
	m.connected = false
	done := m.done
	m.mu.Unlock()

	<-done

	return nil
}

// Samples returns the channel of the current (or most recent) connection.
func (m *Mock) Samples() <-chan Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.samples
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples generates simulated samples.
func (m *Mock) generateSamples(ctx context.Context, adc *SweepADC, samples chan<- Reading, done chan<- struct{}) {
	defer close(done)
	defer close(samples)

	rate := m.cfg.SampleRate
	if rate <= 0 {
		rate = 100 * time.Millisecond
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reading := Reading{Timestamp: now, Value: adc.Get()}
			select {
			case samples <- reading:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}
