// Package transport provides the byte-stream links to the robot.
//
// Every link delivers arbitrary chunks: a chunk may hold part of a line or
// several lines. Receive blocks for at most the configured timeout and reports
// an empty wait as ErrTimeout, which callers treat as "nothing this time".
// Send is bounded by the same timeout.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default link parameters.
const (
	DefaultReceiveTimeout = 10 * time.Millisecond
	DefaultReadSize       = 1024
)

var (
	// ErrTimeout is returned by Receive when no bytes arrived within the
	// timeout, and by Send when the peer stopped draining the link.
	ErrTimeout = errors.New("transport timed out")

	// ErrNotConnected is returned when a link is used before Connect or after Close.
	ErrNotConnected = errors.New("transport not connected")

	// ErrUnsupported is returned for links the current platform cannot open.
	ErrUnsupported = errors.New("transport not supported on this platform")
)

// Transport is a bidirectional byte stream to the robot.
type Transport interface {
	// Connect opens the link. Failures are reported as *ConnectionError.
	Connect(ctx context.Context) error

	// Send writes p in full, giving up with ErrTimeout if the link stays
	// blocked past the timeout. Sending is best effort; callers decide
	// whether the error matters.
	Send(p []byte) error

	// Receive returns the next chunk of bytes, ErrTimeout when none arrived
	// in time, or another error when the link failed.
	Receive() ([]byte, error)

	// Close releases the link.
	Close() error
}

// Kind names a transport implementation.
type Kind string

const (
	KindBluetooth Kind = "bluetooth"
	KindSerial    Kind = "serial"
	KindTCP       Kind = "tcp"
)

// Kinds lists the supported transport kinds in display order.
var Kinds = []Kind{KindBluetooth, KindSerial, KindTCP}

// Options selects and configures a transport.
type Options struct {
	Kind Kind

	// ReceiveTimeout bounds every Receive call.
	ReceiveTimeout time.Duration

	// ReadSize is the largest chunk a single Receive returns.
	ReadSize int

	Bluetooth BluetoothOptions
	Serial    SerialOptions
	TCP       TCPOptions
}

func (o Options) withDefaults() Options {
	if o.ReceiveTimeout <= 0 {
		o.ReceiveTimeout = DefaultReceiveTimeout
	}
	if o.ReadSize <= 0 {
		o.ReadSize = DefaultReadSize
	}
	return o
}

// Target describes the endpoint of the selected kind, for display.
func (o Options) Target() string {
	switch o.Kind {
	case KindBluetooth:
		return fmt.Sprintf("%s channel %d", o.Bluetooth.Address, o.Bluetooth.Channel)
	case KindSerial:
		return o.Serial.Device
	case KindTCP:
		return o.TCP.Address
	default:
		return ""
	}
}

// New builds the transport named by opts.Kind. The link is not opened until
// Connect is called.
func New(opts Options) (Transport, error) {
	opts = opts.withDefaults()
	switch opts.Kind {
	case KindBluetooth:
		return NewBluetooth(opts.Bluetooth, opts.ReceiveTimeout, opts.ReadSize)
	case KindSerial:
		return NewSerial(opts.Serial, opts.ReceiveTimeout, opts.ReadSize)
	case KindTCP:
		return NewTCP(opts.TCP, opts.ReceiveTimeout, opts.ReadSize)
	default:
		return nil, fmt.Errorf("unsupported transport %q (must be bluetooth, serial, or tcp)", opts.Kind)
	}
}

// ConnectionError reports a failure to open a link.
type ConnectionError struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting %s %s: %v", e.Kind, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
