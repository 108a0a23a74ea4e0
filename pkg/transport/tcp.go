package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// TCPOptions configures a TCP link, typically a serial-over-IP radio bridge
// or a robot simulator.
type TCPOptions struct {
	Address     string        `yaml:"address"`
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`
}

// DefaultDialTimeout bounds TCP connection setup when none is configured.
const DefaultDialTimeout = 5 * time.Second

// TCP is a Transport over a TCP stream.
type TCP struct {
	opts    TCPOptions
	timeout time.Duration
	buf     []byte

	mu   sync.Mutex
	conn net.Conn
}

// NewTCP creates an unconnected TCP transport.
func NewTCP(opts TCPOptions, timeout time.Duration, readSize int) (*TCP, error) {
	if opts.Address == "" {
		return nil, errors.New("tcp: address is required")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	return &TCP{
		opts:    opts,
		timeout: timeout,
		buf:     make([]byte, readSize),
	}, nil
}

// Connect dials the configured address.
func (t *TCP) Connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: t.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.opts.Address)
	if err != nil {
		return &ConnectionError{Kind: KindTCP, Target: t.opts.Address, Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *TCP) current() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	return t.conn, nil
}

// Send writes p to the stream, waiting at most the timeout.
func (t *TCP) Send(p []byte) error {
	conn, err := t.current()
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return fmt.Errorf("tcp set deadline: %w", err)
	}

	_, err = conn.Write(p)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("tcp send: %w", ErrTimeout)
	}
	if err != nil {
		return fmt.Errorf("tcp send: %w", err)
	}
	return nil
}

// Receive reads one chunk, waiting at most the receive timeout.
// The returned slice is only valid until the next call.
func (t *TCP) Receive() ([]byte, error) {
	conn, err := t.current()
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return nil, fmt.Errorf("tcp set deadline: %w", err)
	}

	n, err := conn.Read(t.buf)
	if n > 0 {
		return t.buf[:n], nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil, ErrTimeout
	}
	if err != nil {
		return nil, fmt.Errorf("tcp receive: %w", err)
	}
	return nil, ErrTimeout
}

// Close closes the stream.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
