// Package transport provides the point-to-point byte stream used to deliver
// force feedback records to the driver process. Each hand owns one Stream,
// which is connected at most once and never reconnected.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// DefaultScope is the application scope used in endpoint names.
const DefaultScope = "vrapplication"

// Default timeouts for connect and write.
const (
	DefaultConnectTimeout = 2 * time.Second
	DefaultWriteTimeout   = 50 * time.Millisecond
)

var (
	// ErrConnectFailed wraps the dial error of a failed connect attempt.
	ErrConnectFailed = errors.New("connect failed")
	// ErrAlreadyAttempted is returned by a second Connect call.
	ErrAlreadyAttempted = errors.New("connect already attempted")
	// ErrClosed is returned when connecting a stream that was disconnected.
	ErrClosed = errors.New("stream closed")
)

// State is the connection state of a Stream.
type State int32

const (
	// StateUnconnected is the initial state before Connect.
	StateUnconnected State = iota
	// StateConnected means writes reach the consumer.
	StateConnected
	// StateDegraded is entered when the single connect attempt fails. It is
	// terminal and behaves like StateUnconnected for sends.
	StateDegraded
	// StateClosed is entered on Disconnect or after a write error. Terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Endpoint identifies the channel of one hand.
type Endpoint struct {
	Scope string
	Side  skeleton.Side
}

// Name returns the hand-scoped channel name, <scope>/ffb/curl/<left|right>.
func (e Endpoint) Name() string {
	scope := e.Scope
	if scope == "" {
		scope = DefaultScope
	}
	return scope + "/ffb/curl/" + e.Side.String()
}

func (e Endpoint) String() string {
	return e.Name()
}

// Conn is the minimal write side of a connected stream.
type Conn interface {
	io.WriteCloser
}

// deadlineConn is implemented by conns that support bounded writes.
type deadlineConn interface {
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a connection to address. It must honour ctx cancellation.
type Dialer func(ctx context.Context, address string) (Conn, error)

// Options tunes connect and write behaviour.
type Options struct {
	// ConnectTimeout bounds the single connect attempt. Zero means no bound
	// beyond the caller's context.
	ConnectTimeout time.Duration
	// WriteTimeout bounds each write on conns that support deadlines.
	WriteTimeout time.Duration
	// SocketDir is the directory holding pipe sockets on non-Windows systems.
	// Empty means os.TempDir().
	SocketDir string
}

// DefaultOptions returns Options with default timeouts.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: DefaultConnectTimeout,
		WriteTimeout:   DefaultWriteTimeout,
	}
}
