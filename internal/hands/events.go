package hands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// ErrStopped is returned by Queue.Submit once the event loop has exited.
var ErrStopped = errors.New("event loop stopped")

// EventKind identifies what an Event asks the coordinator to do.
type EventKind int

const (
	// EventPose estimates and sends Event.Pose.
	EventPose EventKind = iota
	// EventCurl sends Event.Report unchanged.
	EventCurl
	// EventRelax releases every finger.
	EventRelax
	// EventHoverBegin applies Event.Pose as the hovered object's pose.
	EventHoverBegin
	// EventHoverEnd relaxes unless Event.Holding.
	EventHoverEnd
	// EventHoverInteractable applies the pose of Event.InteractableID.
	EventHoverInteractable
)

func (k EventKind) String() string {
	switch k {
	case EventPose:
		return "pose"
	case EventCurl:
		return "curl"
	case EventRelax:
		return "relax"
	case EventHoverBegin:
		return "hover-begin"
	case EventHoverEnd:
		return "hover-end"
	case EventHoverInteractable:
		return "hover-interactable"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a host request processed by Run.
type Event struct {
	Kind           EventKind
	Side           skeleton.Side
	Pose           skeleton.JointRotationSet
	Report         curl.Report
	Holding        bool
	InteractableID string

	reply chan<- Result
}

// Result is the outcome of an Event.
type Result struct {
	Report curl.Report `json:"report"`
	Sent   bool        `json:"sent"`
	Err    error       `json:"-"`
}

// Handle processes ev synchronously.
func (c *Coordinator) Handle(ev Event) Result {
	switch ev.Kind {
	case EventPose:
		r, sent, err := c.SetForceFeedback(ev.Side, ev.Pose)
		return Result{Report: r, Sent: sent, Err: err}
	case EventHoverBegin:
		r, sent, err := c.HoverBegin(ev.Side, ev.Pose)
		return Result{Report: r, Sent: sent, Err: err}
	case EventHoverInteractable:
		r, sent, err := c.HoverBeginInteractable(ev.InteractableID, ev.Side)
		return Result{Report: r, Sent: sent, Err: err}
	case EventCurl:
		if !ev.Side.Valid() {
			return Result{Err: fmt.Errorf("%w: %d", ErrInvalidSide, int(ev.Side))}
		}
		r := ev.Report.Clamped()
		return Result{Report: r, Sent: c.SetForceFeedbackRaw(ev.Side, r)}
	case EventRelax:
		if !ev.Side.Valid() {
			return Result{Err: fmt.Errorf("%w: %d", ErrInvalidSide, int(ev.Side))}
		}
		return Result{Report: curl.Relaxed, Sent: c.Relax(ev.Side)}
	case EventHoverEnd:
		if !ev.Side.Valid() {
			return Result{Err: fmt.Errorf("%w: %d", ErrInvalidSide, int(ev.Side))}
		}
		sent := c.HoverEnd(ev.Side, ev.Holding)
		if ev.Holding {
			return Result{Sent: false}
		}
		return Result{Report: curl.Relaxed, Sent: sent}
	default:
		return Result{Err: fmt.Errorf("unknown event kind %s", ev.Kind)}
	}
}

// Run processes events one at a time until ctx is done or events is closed,
// then shuts the coordinator down.
func (c *Coordinator) Run(ctx context.Context, events <-chan Event) error {
	defer c.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			res := c.Handle(ev)
			if res.Err != nil {
				c.logger.Debug("event failed",
					zap.Stringer("kind", ev.Kind),
					zap.Stringer("hand", ev.Side),
					zap.Error(res.Err))
			}
			if ev.reply != nil {
				ev.reply <- res
			}
		}
	}
}

// RunQueue runs the event loop on q. Once it returns, pending and later
// submissions to q fail with ErrStopped.
func (c *Coordinator) RunQueue(ctx context.Context, q *Queue) error {
	defer q.stop()
	return c.Run(ctx, q.ch)
}

// Queue feeds events to a running coordinator and waits for their results.
type Queue struct {
	ch       chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewQueue creates a queue buffering up to size events.
func NewQueue(size int) *Queue {
	return &Queue{
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
}

func (q *Queue) stop() {
	q.stopOnce.Do(func() { close(q.done) })
}

// Submit enqueues ev and waits for it to be handled.
func (q *Queue) Submit(ctx context.Context, ev Event) (Result, error) {
	select {
	case <-q.done:
		return Result{}, ErrStopped
	default:
	}

	reply := make(chan Result, 1)
	ev.reply = reply

	select {
	case q.ch <- ev:
	case <-q.done:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-q.done:
		// Run replies before it returns.
		select {
		case res := <-reply:
			return res, nil
		default:
			return Result{}, ErrStopped
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
