package link

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/sailpot/pkg/potlink"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the controller's UART speed.
	DefaultBaudRate = potlink.BaudRate
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Opener opens a named port at a baud rate.
type Opener func(name string, baudRate int) (io.ReadWriteCloser, error)

// OpenPort opens a serial port in 8N1 mode.
func OpenPort(name string, baudRate int) (io.ReadWriteCloser, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// Serial reads potentiometer lines from a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	open     Opener
	logger   *log.Logger

	conn      io.ReadWriteCloser
	samples   chan Reading
	mu        sync.RWMutex
	cancel    context.CancelFunc
	connected bool
	used      bool // samples belongs to an earlier connection
	done      chan struct{}
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		open:      OpenPort,
		logger:    log.Default(),
		samples:   make(chan Reading, bufSize),
		connected: false,
	}
}

// WithOpener replaces the function used to open the port.
func (d *Serial) WithOpener(open Opener) *Serial {
	d.open = open
	return d
}

// WithLogger replaces the logger used for dropped or malformed lines.
func (d *Serial) WithLogger(logger *log.Logger) *Serial {
	d.logger = logger
	return d
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading samples. A device can be
// connected again after Close or after the port went away; each connection
// gets a fresh samples channel.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	conn, err := d.open(d.port, d.baudRate)
	if err != nil {
		return err
	}

	if d.used {
		d.samples = make(chan Reading, d.bufSize)
	}
	ctx, cancel := context.WithCancel(context.Background())

	d.conn = conn
	d.cancel = cancel
	d.connected = true
	d.used = true
	d.done = make(chan struct{})

	go d.readSamples(ctx, conn, d.samples, d.done)

	return nil
}

// Close closes the port, waits for the reader and closes the samples channel.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	var closeErr error
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close serial port %s: %w", d.port, err)
		}
		d.conn = nil
	}

	d.connected = false
	done := d.done
	d.mu.Unlock()

	// The reader closes the samples channel on its way out.
	<-done

	return closeErr
}

// Samples returns the channel of the current (or most recent) connection.
// It is closed when the connection ends.
func (d *Serial) Samples() <-chan Reading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.samples
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readSamples reads lines from the port and parses them into Readings. It is
// the only sender on samples and closes it when it returns.
func (d *Serial) readSamples(ctx context.Context, conn io.Reader, samples chan Reading, done chan struct{}) {
	defer close(done)
	defer close(samples)
	defer d.lost(done)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("Panic in readSamples: %v", r)
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		value, err := potlink.ParseMessage(line)
		if err != nil {
			d.logger.Printf("Failed to parse line %q: %v", line, err)
			continue
		}

		select {
		case samples <- Reading{Timestamp: time.Now(), Value: value}:
		case <-ctx.Done():
			return
		default:
			d.logger.Printf("Samples channel full, dropping sample")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		d.logger.Printf("Error reading from serial port: %v", err)
	}
}

// lost marks the connection served by the reader owning done as gone, unless
// Close already did.
func (d *Serial) lost(done chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected || d.done != done {
		return
	}

	d.logger.Printf("Serial port %s disconnected", d.port)
	d.cancel()
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	d.connected = false
}
