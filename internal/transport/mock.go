package transport

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

// TestableConn implements Conn with configurable behaviour for testing.
type TestableConn struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the conn.
	WriteBuffer *bytes.Buffer

	// WriteError is returned by every Write call if set.
	WriteError error

	// ShortWrite makes Write report one byte fewer than requested.
	ShortWrite bool

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// WriteCalls records the number of Write calls.
	WriteCalls int

	// Deadline is the last write deadline set.
	Deadline time.Time
}

// NewTestableConn creates a new TestableConn.
func NewTestableConn() *TestableConn {
	return &TestableConn{WriteBuffer: bytes.NewBuffer(nil)}
}

// Write appends p to WriteBuffer unless an error is configured.
func (c *TestableConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.WriteCalls++
	if c.Closed {
		return 0, errors.New("conn closed")
	}
	if c.WriteError != nil {
		return 0, c.WriteError
	}
	if c.ShortWrite && len(p) > 0 {
		p = p[:len(p)-1]
	}
	return c.WriteBuffer.Write(p)
}

// Close marks the conn closed.
func (c *TestableConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return c.CloseError
}

// SetWriteDeadline records t.
func (c *TestableConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deadline = t
	return nil
}

// Written returns a copy of everything written so far.
func (c *TestableConn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.WriteBuffer.Bytes())
}

// Calls returns the number of Write calls so far.
func (c *TestableConn) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteCalls
}

// IsClosed reports whether Close was called.
func (c *TestableConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Closed
}

// MockDialer hands out a fixed conn or error and records the addresses dialed.
type MockDialer struct {
	mu sync.Mutex

	Conn  Conn
	Error error

	addresses []string
}

// Dial implements Dialer.
func (m *MockDialer) Dial(ctx context.Context, address string) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addresses = append(m.addresses, address)
	if m.Error != nil {
		return nil, m.Error
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Conn, nil
}

// Addresses returns the addresses dialed so far.
func (m *MockDialer) Addresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.addresses...)
}
