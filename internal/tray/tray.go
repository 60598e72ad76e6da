// Package tray provides a system tray menu for the force feedback bridge.
package tray

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

const (
	// refreshInterval is how often hand status lines are refreshed.
	refreshInterval = time.Second
	// submitTimeout bounds waiting on the event loop for a menu action.
	submitTimeout = 2 * time.Second
)

// Dispatcher runs an event on the coordinator's event loop.
type Dispatcher interface {
	Submit(ctx context.Context, ev hands.Event) (hands.Result, error)
}

// Tray shows per-hand channel state and offers relax and quit actions.
type Tray struct {
	coord    *hands.Coordinator
	dispatch Dispatcher
	onOpen  func()
	onQuit  func()
	mu      sync.RWMutex
	stopped chan struct{}

	// Menu items stored for later updates
	menuHands [skeleton.SideCount]*systray.MenuItem
	menuLast  *systray.MenuItem
}

// New creates a Tray for coord. Menu actions are submitted through dispatch.
func New(coord *hands.Coordinator, dispatch Dispatcher) *Tray {
	t := &Tray{
		coord:    coord,
		dispatch: dispatch,
		stopped:  make(chan struct{}),
	}
	coord.OnReport(t.setLastReport)
	return t
}

// OnOpen sets the callback called when the API menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is clicked or ctx is done.
func (t *Tray) Run(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			systray.Quit()
		case <-t.stopped:
		}
	}()
	systray.Run(t.onReady, t.onExit)
}

// Run is a convenience that runs a tray for coord until ctx is done or the
// user quits, in which case quit is called.
func Run(ctx context.Context, coord *hands.Coordinator, queue *hands.Queue, url string, quit func()) {
	t := New(coord, queue)
	if url != "" {
		t.OnOpen(func() { openBrowser(url) })
	}
	t.OnQuit(quit)
	t.Run(ctx)
}

func (t *Tray) onReady() {
	systray.SetTitle("ffbridge")
	systray.SetTooltip("Force feedback bridge")

	t.mu.Lock()
	for _, side := range skeleton.Sides() {
		item := systray.AddMenuItem(side.String()+": unconnected", "Force feedback channel state")
		item.Disable()
		t.menuHands[side] = item
	}
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem("Last: none", "Last report sent")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuRelax := systray.AddMenuItem("Relax both hands", "Send a relaxed record to both hands")
	menuOpen := systray.AddMenuItem("Open API...", "Open the host API in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit ffbridge")

	t.refresh()

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-menuRelax.ClickedCh:
				t.handleRelax()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			case <-t.stopped:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	select {
	case <-t.stopped:
	default:
		close(t.stopped)
	}
}

// refresh updates the per-hand status lines.
func (t *Tray) refresh() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, st := range t.coord.Status() {
		if item := t.menuHands[st.Side]; item != nil {
			item.SetTitle(st.String())
		}
	}
}

func (t *Tray) handleRelax() {
	relax(t.dispatch)
	t.refresh()
}

// relax asks the event loop to relax both hands.
func relax(d Dispatcher) {
	for _, side := range skeleton.Sides() {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		_, err := d.Submit(ctx, hands.Event{Kind: hands.EventRelax, Side: side})
		cancel()
		if err != nil {
			zap.L().Warn("failed to relax hand", zap.Stringer("hand", side), zap.Error(err))
		}
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}

	systray.Quit()
}

// setLastReport updates the last report line in the menu.
func (t *Tray) setLastReport(ev hands.ReportEvent) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast == nil {
		return
	}
	if !ev.Sent {
		return
	}
	t.menuLast.SetTitle("Last: " + ev.Side.String() + " " + ev.Report.String())
}
