package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults for the robot's RFCOMM serial module.
const (
	DefaultBluetoothAddress = "00:21:13:01:D1:59"
	DefaultBluetoothChannel = 1
)

// BluetoothOptions configures an RFCOMM link.
type BluetoothOptions struct {
	Address string `yaml:"address"`
	Channel uint8  `yaml:"channel"`
}

// ParseAddress parses a colon-separated Bluetooth device address such as
// "00:21:13:01:D1:59". The result is in kernel (little-endian) byte order.
func ParseAddress(s string) ([6]uint8, error) {
	var addr [6]uint8
	parts := strings.Split(s, ":")
	if len(parts) != len(addr) {
		return addr, fmt.Errorf("invalid bluetooth address %q: want 6 colon-separated octets", s)
	}
	for i, part := range parts {
		if len(part) != 2 {
			return addr, fmt.Errorf("invalid bluetooth address %q: octet %q", s, part)
		}
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("invalid bluetooth address %q: %w", s, err)
		}
		addr[len(addr)-1-i] = uint8(b)
	}
	return addr, nil
}

// Bluetooth is a Transport over an RFCOMM stream socket.
type Bluetooth struct {
	opts    BluetoothOptions
	addr    [6]uint8
	timeout time.Duration
	conn    *fdConn
	buf     []byte
}

// NewBluetooth creates an unconnected RFCOMM transport.
func NewBluetooth(opts BluetoothOptions, timeout time.Duration, readSize int) (*Bluetooth, error) {
	if opts.Address == "" {
		opts.Address = DefaultBluetoothAddress
	}
	if opts.Channel == 0 {
		opts.Channel = DefaultBluetoothChannel
	}
	addr, err := ParseAddress(opts.Address)
	if err != nil {
		return nil, err
	}
	return &Bluetooth{
		opts:    opts,
		addr:    addr,
		timeout: timeout,
		buf:     make([]byte, readSize),
	}, nil
}

func (b *Bluetooth) target() string {
	return fmt.Sprintf("%s channel %d", b.opts.Address, b.opts.Channel)
}

// Connect opens the RFCOMM socket to the configured device.
func (b *Bluetooth) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Kind: KindBluetooth, Target: b.target(), Err: err}
	}
	conn, err := dialRFCOMM(b.addr, b.opts.Channel)
	if err != nil {
		return &ConnectionError{Kind: KindBluetooth, Target: b.target(), Err: err}
	}
	b.conn = conn
	return nil
}

// Send writes p to the socket.
func (b *Bluetooth) Send(p []byte) error {
	if b.conn == nil {
		return ErrNotConnected
	}
	if err := b.conn.write(p, b.timeout); err != nil {
		return fmt.Errorf("bluetooth send: %w", err)
	}
	return nil
}

// Receive reads one chunk, waiting at most the receive timeout.
// The returned slice is only valid until the next call.
func (b *Bluetooth) Receive() ([]byte, error) {
	if b.conn == nil {
		return nil, ErrNotConnected
	}
	return b.conn.read(b.buf, b.timeout)
}

// Close closes the socket.
func (b *Bluetooth) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.close()
}
