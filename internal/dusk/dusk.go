package dusk

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/dusk/internal/clock"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
	"github.com/wheelibin/dusk/internal/schedule"
)

// ErrStopped is returned by calls made after the daemon loop has exited
var ErrStopped = errors.New("dusk is not running")

type committer interface {
	Commit(temperature int)
}

// Dusk owns the night light and runs it on a single goroutine.
// Its methods are safe to call from any goroutine.
type Dusk struct {
	logger  *log.Logger
	manager *nightlight.Manager
	actions chan func()
	done    chan struct{}

	mu       sync.RWMutex
	snapshot nightlight.Snapshot
	settings models.Settings

	sinksMu sync.RWMutex
	sinks   []nightlight.Sink
}

func NewDusk(
	logger *log.Logger,
	clk clock.Clock,
	devices committer,
	session nightlight.SessionState,
) *Dusk {
	d := &Dusk{
		logger:  logger,
		actions: make(chan func(), 64),
		done:    make(chan struct{}),
	}
	d.manager = nightlight.NewManager(
		logger,
		clk,
		d.post,
		schedule.NewResolver(logger),
		devices,
		session,
		nightlight.SinkFunc(d.publish),
	)
	d.snapshot = d.manager.Snapshot()
	return d
}

// Subscribe adds a sink for change events. Sinks are called on the daemon goroutine and must not block.
func (d *Dusk) Subscribe(sink nightlight.Sink) {
	d.sinksMu.Lock()
	defer d.sinksMu.Unlock()
	d.sinks = append(d.sinks, sink)
}

func (d *Dusk) publish(event nightlight.Event) {
	d.sinksMu.RLock()
	defer d.sinksMu.RUnlock()
	for _, sink := range d.sinks {
		sink.Publish(event)
	}
}

// post queues fn for the daemon goroutine, it is dropped once the loop has exited
func (d *Dusk) post(fn func()) {
	select {
	case d.actions <- fn:
	case <-d.done:
	}
}

// call runs fn on the daemon goroutine and waits for it
func (d *Dusk) call(fn func()) error {
	finished := make(chan struct{})
	select {
	case d.actions <- func() {
		defer close(finished)
		fn()
		// callers read State as soon as they return
		d.refresh()
	}:
	case <-d.done:
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrStopped
	}
}

// Run applies settings then processes calls and timers until ctx is done
func (d *Dusk) Run(ctx context.Context, settings models.Settings) {
	d.logger.Debug("Dusk.Run")
	defer close(d.done)

	d.manager.Start(settings)
	d.refresh()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dusk.Run: stop signal received")
			d.manager.Close()
			return

		case action := <-d.actions:
			action()
			d.refresh()
		}
	}
}

func (d *Dusk) refresh() {
	snapshot := d.manager.Snapshot()
	settings := d.manager.Settings()
	d.mu.Lock()
	d.snapshot = snapshot
	d.settings = settings
	d.mu.Unlock()
}

// State returns the state as of the last processed call or timer
func (d *Dusk) State() nightlight.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

// Settings returns the validated settings in effect
func (d *Dusk) Settings() models.Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

func (d *Dusk) Toggle() (bool, error) {
	var inhibited bool
	err := d.call(func() { inhibited = d.manager.Toggle() })
	return inhibited, err
}

func (d *Dusk) Inhibit(name string) (nightlight.Token, error) {
	var token nightlight.Token
	err := d.call(func() { token = d.manager.Inhibit(name) })
	return token, err
}

func (d *Dusk) Uninhibit(token nightlight.Token) (bool, error) {
	var released bool
	err := d.call(func() { released = d.manager.Uninhibit(token) })
	return released, err
}

func (d *Dusk) Preview(temperature int) error {
	return d.call(func() { d.manager.Preview(temperature) })
}

func (d *Dusk) StopPreview() error {
	return d.call(func() { d.manager.StopPreview() })
}

// the notifications below don't wait for the daemon goroutine

func (d *Dusk) Reconfigure(settings models.Settings) {
	d.post(func() { d.manager.Reconfigure(settings) })
}

func (d *Dusk) LocationUpdated(location models.Coordinates) {
	d.post(func() { d.manager.LocationUpdated(location) })
}

func (d *Dusk) Resumed() {
	d.post(d.manager.Resumed)
}

func (d *Dusk) ClockSkewed() {
	d.post(d.manager.ClockSkewed)
}

func (d *Dusk) SessionActiveChanged(active bool) {
	d.post(func() { d.manager.SessionActiveChanged(active) })
}

func (d *Dusk) DeviceAdded(name string) {
	d.post(func() { d.manager.DeviceAdded(name) })
}
