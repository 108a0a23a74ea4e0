package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultBaudRate is used when a serial link is configured without one.
const DefaultBaudRate = 115200

// SerialOptions configures a raw serial link.
type SerialOptions struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
}

// Serial is a Transport over a tty device in raw 8N1 mode.
type Serial struct {
	opts    SerialOptions
	timeout time.Duration
	conn    *fdConn
	buf     []byte
}

// NewSerial creates an unopened serial transport.
func NewSerial(opts SerialOptions, timeout time.Duration, readSize int) (*Serial, error) {
	if opts.Device == "" {
		return nil, errors.New("serial: device is required")
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if !supportedBaud(opts.BaudRate) {
		return nil, fmt.Errorf("serial: unsupported baud rate %d", opts.BaudRate)
	}
	return &Serial{
		opts:    opts,
		timeout: timeout,
		buf:     make([]byte, readSize),
	}, nil
}

// Connect opens and configures the device.
func (s *Serial) Connect(ctx context.Context) error {
	target := fmt.Sprintf("%s at %d baud", s.opts.Device, s.opts.BaudRate)
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Kind: KindSerial, Target: target, Err: err}
	}
	conn, err := openSerial(s.opts.Device, s.opts.BaudRate)
	if err != nil {
		return &ConnectionError{Kind: KindSerial, Target: target, Err: err}
	}
	s.conn = conn
	return nil
}

// Send writes p to the device.
func (s *Serial) Send(p []byte) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.write(p, s.timeout); err != nil {
		return fmt.Errorf("serial send: %w", err)
	}
	return nil
}

// Receive reads one chunk, waiting at most the receive timeout.
// The returned slice is only valid until the next call.
func (s *Serial) Receive() ([]byte, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn.read(s.buf, s.timeout)
}

// Close closes the device.
func (s *Serial) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.close()
}
