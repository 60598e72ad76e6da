package transport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialOptions describes the line settings used when the driver side is a
// serial device rather than a pipe.
type SerialOptions struct {
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
	DataBits int    `yaml:"data_bits" json:"data_bits"`
	StopBits int    `yaml:"stop_bits" json:"stop_bits"`
	Parity   string `yaml:"parity" json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o SerialOptions) Normalize() (SerialOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}

	return opts, nil
}

// Mode converts the options into the serial.Mode used to open a port.
func (o SerialOptions) Mode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// SerialDialer returns a Dialer that opens the serial device named by the
// address with opts.
func SerialDialer(opts SerialOptions) Dialer {
	return func(ctx context.Context, address string) (Conn, error) {
		mode, err := opts.Mode()
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		port, err := serial.Open(address, mode)
		if err != nil {
			return nil, fmt.Errorf("open serial port %s: %w", address, err)
		}
		return newTimedConn(port), nil
	}
}

// timedConn adds write deadlines to a conn that has none, such as a serial
// port. A write that misses its deadline keeps running in the background
// until the conn is closed.
type timedConn struct {
	Conn

	mu       sync.Mutex
	deadline time.Time
}

func newTimedConn(c Conn) *timedConn {
	return &timedConn{Conn: c}
}

// SetWriteDeadline sets the deadline for future writes. A zero t means no
// deadline.
func (c *timedConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *timedConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	if deadline.IsZero() {
		return c.Conn.Write(b)
	}
	wait := time.Until(deadline)
	if wait <= 0 {
		return 0, os.ErrDeadlineExceeded
	}

	type result struct {
		n   int
		err error
	}
	// The background write must not share b with the caller.
	buf := append([]byte(nil), b...)
	done := make(chan result, 1)
	go func() {
		n, err := c.Conn.Write(buf)
		done <- result{n, err}
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.n, r.err
	case <-timer.C:
		return 0, os.ErrDeadlineExceeded
	}
}

// NewSerial creates a stream that writes records to the serial device at port.
func NewSerial(endpoint Endpoint, port string, serialOpts SerialOptions, opts Options, logger *zap.Logger) *Stream {
	return NewStream(endpoint, port, SerialDialer(serialOpts), opts, logger)
}
