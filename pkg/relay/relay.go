// Package relay carries potentiometer values over UDP, one wire message per
// datagram, from the bridge to the viewer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/itohio/sailpot/pkg/link"
	"github.com/itohio/sailpot/pkg/potlink"
)

// DefaultAddr is the viewer's UDP port.
const DefaultAddr = "0.0.0.0:5656"

const (
	// datagramSize bounds a received datagram; longer ones are truncated and rejected.
	datagramSize = 16

	// pollWait is how long Poll waits for a datagram. A deadline already in the
	// past fails the read before the socket is looked at.
	pollWait = time.Millisecond
)

// Sender forwards readings to a UDP address.
type Sender struct {
	conn net.Conn
	buf  [potlink.MaxMessageLen]byte
}

// Dial creates a Sender for addr.
func Dial(addr string) (*Sender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Sender{conn: conn}, nil
}

// Send transmits one reading as a single datagram.
func (s *Sender) Send(ctx context.Context, r link.Reading) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	if _, err := s.conn.Write(potlink.AppendMessage(s.buf[:0], r.Value)); err != nil {
		return fmt.Errorf("failed to send to %s: %w", s.conn.RemoteAddr(), err)
	}
	return nil
}

// Close releases the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// Server receives readings and keeps the latest valid value.
type Server struct {
	conn   net.PacketConn
	logger *log.Logger
	value  atomic.Uint32
}

// Listen binds a UDP server on addr. The initial value is 0.
func Listen(addr string, logger *log.Logger) (*Server, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not bind to %s: %w", addr, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{conn: conn, logger: logger}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Value returns the latest received value.
func (s *Server) Value() uint16 {
	return uint16(s.value.Load())
}

// Poll handles every datagram already queued without blocking and reports
// whether the value changed.
func (s *Server) Poll() (bool, error) {
	changed := false
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(pollWait)); err != nil {
			return changed, err
		}
		ok, err := s.receive()
		if err != nil {
			if isTimeout(err) {
				return changed, nil
			}
			return changed, err
		}
		changed = changed || ok
	}
}

// Run receives datagrams until ctx is done or the socket fails.
func (s *Server) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := s.receive(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isTimeout(err) {
				continue
			}
			return fmt.Errorf("udp receive: %w", err)
		}
	}
}

// Close releases the socket.
func (s *Server) Close() error {
	return s.conn.Close()
}

// receive reads one datagram and reports whether it carried a valid value.
func (s *Server) receive() (bool, error) {
	var buf [datagramSize]byte
	n, _, err := s.conn.ReadFrom(buf[:])
	if err != nil {
		return false, err
	}

	value, err := potlink.ParseMessage(buf[:n])
	if err != nil {
		return false, nil
	}

	s.logger.Printf("Received value: %d", value)
	s.value.Store(uint32(value))
	return true, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
