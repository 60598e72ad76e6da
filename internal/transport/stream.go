package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Stream is a client connection to one hand's endpoint.
//
// Connect is attempted once. Send is best effort: it returns false without
// I/O unless connected, and a failed write closes the stream for good.
type Stream struct {
	endpoint Endpoint
	address  string
	dial     Dialer
	opts     Options
	logger   *zap.Logger

	mu        sync.Mutex
	conn      Conn
	attempted bool
	state     atomic.Int32
}

// NewStream creates an unconnected stream that will dial address with dial.
func NewStream(endpoint Endpoint, address string, dial Dialer, opts Options, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		endpoint: endpoint,
		address:  address,
		dial:     dial,
		opts:     opts,
		logger: logger.With(
			zap.String("endpoint", endpoint.Name()),
			zap.String("address", address),
		),
	}
}

// NewPipe creates a stream to the platform named pipe for endpoint.
func NewPipe(endpoint Endpoint, opts Options, logger *zap.Logger) *Stream {
	return NewStream(endpoint, PipeAddress(opts.SocketDir, endpoint.Name()), PipeDialer(), opts, logger)
}

// Endpoint returns the endpoint this stream connects to.
func (s *Stream) Endpoint() Endpoint {
	return s.endpoint
}

// Address returns the resolved platform address.
func (s *Stream) Address() string {
	return s.address
}

// State returns the current connection state.
func (s *Stream) State() State {
	return State(s.state.Load())
}

func (s *Stream) setState(st State) {
	s.state.Store(int32(st))
}

// Connect makes the single connection attempt for this stream. A failure
// leaves the stream degraded and is returned wrapped in ErrConnectFailed for
// the caller to log; it is never fatal.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return ErrClosed
	}
	if s.attempted {
		return ErrAlreadyAttempted
	}
	s.attempted = true

	if s.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ConnectTimeout)
		defer cancel()
	}

	s.logger.Debug("connecting to force feedback endpoint")
	conn, err := s.dial(ctx, s.address)
	if err != nil {
		s.setState(StateDegraded)
		s.logger.Warn("unable to connect to force feedback endpoint, assuming hand is inactive", zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, s.endpoint.Name(), err)
	}

	s.conn = conn
	s.setState(StateConnected)
	s.logger.Info("connected to force feedback endpoint")
	return nil
}

// Send writes b in full. It reports whether the write was performed and
// succeeded. Write errors close the stream and are not returned.
func (s *Stream) Send(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateConnected || s.conn == nil {
		return false
	}

	if dc, ok := s.conn.(deadlineConn); ok && s.opts.WriteTimeout > 0 {
		if err := dc.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			s.logger.Debug("failed to set write deadline", zap.Error(err))
		}
	}

	n, err := s.conn.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.logger.Warn("write to force feedback endpoint failed, closing channel", zap.Error(err))
		s.closeLocked()
		return false
	}

	return true
}

// Disconnect closes the stream. It is safe to call more than once.
func (s *Stream) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Stream) closeLocked() error {
	s.setState(StateClosed)
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.endpoint.Name(), err)
	}
	s.logger.Info("disconnected from force feedback endpoint")
	return nil
}
