// Package hands coordinates the left and right force feedback channels and
// turns host events into curl reports.
package hands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/ffb"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/transport"
)

var (
	// ErrInvalidSide is returned for a side other than Left or Right.
	ErrInvalidSide = errors.New("invalid hand side")
	// ErrUnknownInteractable is returned when hovering an unregistered interactable.
	ErrUnknownInteractable = errors.New("unknown interactable")
)

// Config holds configuration for a Coordinator.
type Config struct {
	// Scope prefixes the endpoint names. Empty means transport.DefaultScope.
	Scope string
	// Estimator converts live poses to reports. Nil uses the built-in
	// reference poses.
	Estimator *curl.Estimator
	// Transports overrides the transport per side. A nil entry gets a named
	// pipe stream built from TransportOptions.
	Transports [skeleton.SideCount]ffb.Transport
	// TransportOptions configures the default pipe streams.
	TransportOptions transport.Options
	Logger           *zap.Logger
}

// Interactable is an object whose main pose is applied when a hand hovers it.
type Interactable struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Pose skeleton.Pose `json:"pose"`
}

// ReportEvent describes one report handed to a channel.
type ReportEvent struct {
	Side   skeleton.Side `json:"hand"`
	Report curl.Report   `json:"report"`
	Sent   bool          `json:"sent"`
	Source string        `json:"source"`
	Time   time.Time     `json:"time"`
}

// HandStatus is a snapshot of one channel.
type HandStatus struct {
	Side     skeleton.Side   `json:"hand"`
	Endpoint string          `json:"endpoint"`
	State    transport.State `json:"state"`
	Stats    ffb.Stats       `json:"stats"`
	LastSent *curl.Report    `json:"last_sent,omitempty"`
}

// String returns a one-line summary such as "left: connected, 3 sent".
func (s HandStatus) String() string {
	out := fmt.Sprintf("%s: %s, %d sent", s.Side, s.State, s.Stats.Sent)
	if s.Stats.Dropped > 0 {
		out += fmt.Sprintf(", %d dropped", s.Stats.Dropped)
	}
	return out
}

// Coordinator owns one channel per hand.
type Coordinator struct {
	estimator *curl.Estimator
	channels  [skeleton.SideCount]*ffb.Channel
	endpoints [skeleton.SideCount]string
	logger    *zap.Logger

	mu            sync.RWMutex
	interactables map[string]Interactable
	observers     []func(ReportEvent)

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Coordinator with unconnected channels for both hands.
func New(cfg Config) (*Coordinator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	est := cfg.Estimator
	if est == nil {
		var err error
		est, err = curl.NewEstimator(curl.BuiltinReferences())
		if err != nil {
			return nil, fmt.Errorf("builtin references: %w", err)
		}
	}

	c := &Coordinator{
		estimator:     est,
		logger:        logger,
		interactables: make(map[string]Interactable),
	}

	for _, side := range skeleton.Sides() {
		ep := transport.Endpoint{Scope: cfg.Scope, Side: side}
		t := cfg.Transports[side]
		if t == nil {
			t = transport.NewPipe(ep, cfg.TransportOptions, logger)
		}
		c.channels[side] = ffb.NewChannel(side, t, logger)
		c.endpoints[side] = ep.Name()
	}

	return c, nil
}

// Start makes the single connection attempt for each hand. A hand that cannot
// connect is treated as inactive.
func (c *Coordinator) Start(ctx context.Context) {
	for _, ch := range c.channels {
		if err := ch.Connect(ctx); err != nil {
			c.logger.Info("hand inactive", zap.Stringer("hand", ch.Side()), zap.Error(err))
		}
	}
}

func (c *Coordinator) channel(side skeleton.Side) (*ffb.Channel, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, int(side))
	}
	return c.channels[side], nil
}

// SetForceFeedback estimates the curl of live and sends it on side's channel.
// The returned report is valid whenever err is nil, even if it was not sent.
func (c *Coordinator) SetForceFeedback(side skeleton.Side, live skeleton.JointRotationSet) (curl.Report, bool, error) {
	return c.estimateAndSend(side, live, "pose")
}

func (c *Coordinator) estimateAndSend(side skeleton.Side, live skeleton.JointRotationSet, source string) (curl.Report, bool, error) {
	ch, err := c.channel(side)
	if err != nil {
		return curl.Report{}, false, err
	}

	report, err := c.estimator.Estimate(side, live)
	if err != nil {
		return curl.Report{}, false, err
	}

	sent := ch.SetCurl(report)
	c.notify(side, report, sent, source)
	return report, sent, nil
}

// SetForceFeedbackRaw sends report unchanged apart from range clamping.
func (c *Coordinator) SetForceFeedbackRaw(side skeleton.Side, report curl.Report) bool {
	ch, err := c.channel(side)
	if err != nil {
		return false
	}
	report = report.Clamped()
	sent := ch.SetCurl(report)
	c.notify(side, report, sent, "raw")
	return sent
}

// Relax releases every finger of side.
func (c *Coordinator) Relax(side skeleton.Side) bool {
	ch, err := c.channel(side)
	if err != nil {
		return false
	}
	sent := ch.Relax()
	c.notify(side, curl.Relaxed, sent, "relax")
	return sent
}

// HoverBegin applies the pose of the object a hand started hovering.
func (c *Coordinator) HoverBegin(side skeleton.Side, pose skeleton.JointRotationSet) (curl.Report, bool, error) {
	return c.estimateAndSend(side, pose, "hover")
}

// HoverEnd relaxes side unless the hand is holding an object.
func (c *Coordinator) HoverEnd(side skeleton.Side, holding bool) bool {
	if _, err := c.channel(side); err != nil {
		return false
	}
	if holding {
		c.logger.Debug("hover ended while holding, keeping curl", zap.Stringer("hand", side))
		return false
	}
	return c.Relax(side)
}

// Register adds or replaces an interactable. An empty ID is assigned a new
// UUID. The registered ID is returned.
func (c *Coordinator) Register(it Interactable) string {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Pose = skeleton.Pose{Left: it.Pose.Left.Clone(), Right: it.Pose.Right.Clone()}

	c.mu.Lock()
	c.interactables[it.ID] = it
	c.mu.Unlock()

	c.logger.Debug("registered interactable", zap.String("id", it.ID), zap.String("name", it.Name))
	return it.ID
}

// Unregister removes an interactable. It reports whether it was registered.
func (c *Coordinator) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.interactables[id]
	delete(c.interactables, id)
	return ok
}

// Interactable returns a registered interactable.
func (c *Coordinator) Interactable(id string) (Interactable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.interactables[id]
	return it, ok
}

// Interactables returns all registered interactables.
func (c *Coordinator) Interactables() []Interactable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Interactable, 0, len(c.interactables))
	for _, it := range c.interactables {
		out = append(out, it)
	}
	return out
}

// HoverBeginInteractable applies the registered main pose of id for side.
func (c *Coordinator) HoverBeginInteractable(id string, side skeleton.Side) (curl.Report, bool, error) {
	if !side.Valid() {
		return curl.Report{}, false, fmt.Errorf("%w: %d", ErrInvalidSide, int(side))
	}
	it, ok := c.Interactable(id)
	if !ok {
		return curl.Report{}, false, fmt.Errorf("%w: %s", ErrUnknownInteractable, id)
	}
	return c.estimateAndSend(side, it.Pose.Hand(side), "interactable")
}

// OnReport registers fn to be called after every send attempt. fn runs on
// the sending goroutine and must not block.
func (c *Coordinator) OnReport(fn func(ReportEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Coordinator) notify(side skeleton.Side, report curl.Report, sent bool, source string) {
	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()

	if len(observers) == 0 {
		return
	}
	ev := ReportEvent{Side: side, Report: report, Sent: sent, Source: source, Time: time.Now()}
	for _, fn := range observers {
		fn(ev)
	}
}

// Status returns a snapshot of both channels.
func (c *Coordinator) Status() []HandStatus {
	out := make([]HandStatus, 0, skeleton.SideCount)
	for _, side := range skeleton.Sides() {
		ch := c.channels[side]
		st := HandStatus{
			Side:     side,
			Endpoint: c.endpoints[side],
			State:    ch.State(),
			Stats:    ch.Stats(),
		}
		if last, ok := ch.LastSent(); ok {
			st.LastSent = &last
		}
		out = append(out, st)
	}
	return out
}

// Estimator returns the estimator used for poses.
func (c *Coordinator) Estimator() *curl.Estimator {
	return c.estimator
}

// Shutdown closes both channels. Only the first call has any effect.
func (c *Coordinator) Shutdown() error {
	c.shutdownOnce.Do(func() {
		var errs []error
		for _, ch := range c.channels {
			if err := ch.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.shutdownErr = errors.Join(errs...)
		c.logger.Info("force feedback channels closed")
	})
	return c.shutdownErr
}
