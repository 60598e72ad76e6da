package ffb

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/transport"
)

// ErrChannelClosed is returned by Connect after Close.
var ErrChannelClosed = errors.New("channel closed")

// Transport is the byte stream a Channel writes records to.
// *transport.Stream implements it.
type Transport interface {
	Connect(ctx context.Context) error
	Send(b []byte) bool
	Disconnect() error
	State() transport.State
}

// Stats counts records handed to a channel.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Channel delivers curl reports for one hand. Delivery is fire and forget:
// a report that cannot be written is dropped and the next one is attempted
// independently.
type Channel struct {
	side      skeleton.Side
	transport Transport
	logger    *zap.Logger

	closed  atomic.Bool
	sent    atomic.Uint64
	dropped atomic.Uint64
	last    atomic.Pointer[curl.Report]
}

// NewChannel creates a channel for side on top of t.
func NewChannel(side skeleton.Side, t Transport, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		side:      side,
		transport: t,
		logger:    logger.With(zap.Stringer("hand", side)),
	}
}

// Connect makes the transport's single connection attempt.
func (c *Channel) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	return c.transport.Connect(ctx)
}

// SetCurl sends report as one record. It returns true only when the record
// was written in full.
func (c *Channel) SetCurl(report curl.Report) bool {
	if c.closed.Load() {
		c.dropped.Add(1)
		return false
	}

	rec := RecordFromReport(report)
	b, err := rec.MarshalBinary()
	if err != nil {
		c.logger.Error("failed to encode record", zap.Error(err))
		c.dropped.Add(1)
		return false
	}

	if !c.transport.Send(b) {
		c.dropped.Add(1)
		return false
	}

	sent := rec.Report()
	c.last.Store(&sent)
	c.sent.Add(1)
	c.logger.Debug("sent curl record", zap.Stringer("report", sent))
	return true
}

// Relax sends an all-zero record, releasing every finger.
func (c *Channel) Relax() bool {
	return c.SetCurl(curl.Relaxed)
}

// Close releases the transport. Later sends return false without I/O.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.transport.Disconnect()
}

// Side returns the hand this channel serves.
func (c *Channel) Side() skeleton.Side {
	return c.side
}

// State returns the transport state, or StateClosed after Close.
func (c *Channel) State() transport.State {
	if c.closed.Load() {
		return transport.StateClosed
	}
	return c.transport.State()
}

// Stats returns the sent and dropped counters.
func (c *Channel) Stats() Stats {
	return Stats{Sent: c.sent.Load(), Dropped: c.dropped.Load()}
}

// LastSent returns the last report written successfully.
func (c *Channel) LastSent() (curl.Report, bool) {
	r := c.last.Load()
	if r == nil {
		return curl.Report{}, false
	}
	return *r, true
}
