package devices

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/dusk/internal/concurrency"
	"github.com/wheelibin/dusk/internal/constants"
)

// Output is anything that can display a colour temperature
type Output interface {
	ID() string
	Name() string
	SetTemperature(temperature int) error
}

type journal interface {
	Add(id string, name string) error
	Remove(id string) error
	RecordCommit(id string, temperature int, at time.Time) error
	RecordFailure(id string, cause error) error
}

type device struct {
	output Output
	worker *concurrency.CoalescingWorker
	cancel context.CancelFunc
}

// Registry fans every committed temperature out to the registered outputs.
// Each output has its own worker so a slow output never holds up the others.
type Registry struct {
	logger   *log.Logger
	journal  journal
	throttle time.Duration

	mu      sync.Mutex
	devices map[string]*device
	last    int
	hasLast bool
	onAdded func(name string)
	wg      sync.WaitGroup
	closed  bool
}

func NewRegistry(logger *log.Logger, journal journal) *Registry {
	return &Registry{
		logger:   logger,
		journal:  journal,
		throttle: constants.CommitThrottle,
		devices:  map[string]*device{},
	}
}

// OnAdded registers a callback run every time an output is added
func (r *Registry) OnAdded(fn func(name string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAdded = fn
}

// Add starts driving output. An output with the same id replaces the existing one.
func (r *Registry) Add(output Output) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if existing, found := r.devices[output.ID()]; found {
		existing.cancel()
	}

	if r.journal != nil {
		if err := r.journal.Add(output.ID(), output.Name()); err != nil {
			r.logger.Error(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &device{output: output, cancel: cancel}
	d.worker = concurrency.NewCoalescingWorker(r.throttle, func(temperature int) {
		r.apply(d.output, temperature)
	})
	r.devices[output.ID()] = d

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		d.worker.Run(ctx)
	}()

	// bring it in line with the others straight away
	if r.hasLast {
		d.worker.Submit(r.last)
	}
	onAdded := r.onAdded
	r.mu.Unlock()

	r.logger.Info("Output added", "id", output.ID(), "name", output.Name())
	if onAdded != nil {
		onAdded(output.Name())
	}
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, found := r.devices[id]
	if !found {
		return false
	}
	d.cancel()
	delete(r.devices, id)
	if r.journal != nil {
		if err := r.journal.Remove(id); err != nil {
			r.logger.Error(err)
		}
	}
	r.logger.Info("Output removed", "id", id)
	return true
}

// Commit queues temperature for every output, it never blocks
func (r *Registry) Commit(temperature int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = temperature
	r.hasLast = true
	for _, d := range r.devices {
		d.worker.Submit(temperature)
	}
}

// IDs returns the ids of the registered outputs, sorted
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := lo.Keys(r.devices)
	slices.Sort(ids)
	return ids
}

// Close stops every worker and waits for in-flight commits to finish
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	for _, d := range r.devices {
		d.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registry) apply(output Output, temperature int) {
	err := output.SetTemperature(temperature)
	if err != nil {
		r.logger.Warn("Error setting output temperature", "id", output.ID(), "temperature", temperature, "err", err)
		if r.journal != nil {
			if jerr := r.journal.RecordFailure(output.ID(), err); jerr != nil {
				r.logger.Error(jerr)
			}
		}
		return
	}

	r.logger.Debugf("output %s set to %vK", output.ID(), temperature)
	if r.journal != nil {
		if jerr := r.journal.RecordCommit(output.ID(), temperature, time.Now()); jerr != nil {
			r.logger.Error(jerr)
		}
	}
}
