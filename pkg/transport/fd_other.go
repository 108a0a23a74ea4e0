//go:build !linux

package transport

import "time"

// fdConn is only implemented on Linux.
type fdConn struct{}

func (c *fdConn) read([]byte, time.Duration) ([]byte, error) { return nil, ErrUnsupported }
func (c *fdConn) write([]byte, time.Duration) error          { return ErrUnsupported }
func (c *fdConn) close() error                               { return nil }

func dialRFCOMM([6]uint8, uint8) (*fdConn, error) { return nil, ErrUnsupported }

func supportedBaud(int) bool { return true }

func openSerial(string, int) (*fdConn, error) { return nil, ErrUnsupported }
