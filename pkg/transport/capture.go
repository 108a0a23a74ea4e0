package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Capture replays a recorded byte stream as a link. Each Receive returns at
// most the read size; the end of the stream is reported as io.EOF. Sends
// are discarded.
type Capture struct {
	r   io.Reader
	buf []byte

	mu     sync.Mutex
	closed bool
}

// NewCapture wraps r. readSize <= 0 uses DefaultReadSize.
func NewCapture(r io.Reader, readSize int) *Capture {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	return &Capture{r: r, buf: make([]byte, readSize)}
}

// Connect is a no-op.
func (c *Capture) Connect(context.Context) error { return nil }

// Send discards p.
func (c *Capture) Send([]byte) error {
	if c.isClosed() {
		return ErrNotConnected
	}
	return nil
}

// Receive returns the next chunk of the capture.
func (c *Capture) Receive() ([]byte, error) {
	if c.isClosed() {
		return nil, ErrNotConnected
	}
	n, err := c.r.Read(c.buf)
	if n > 0 {
		return c.buf[:n], nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("capture receive: %w", err)
	}
	return nil, ErrTimeout
}

// Close stops the replay.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Capture) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
