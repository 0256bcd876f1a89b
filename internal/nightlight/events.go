package nightlight

import (
	"fmt"
	"time"

	"github.com/wheelibin/dusk/internal/models"
)

type EventKind int

const (
	EventEnabled EventKind = iota
	EventRunning
	EventInhibited
	EventCurrent
	EventTarget
	EventMode
	EventDaylight
	EventPrevious
	EventScheduled
)

func (k EventKind) String() string {
	switch k {
	case EventEnabled:
		return "enabled"
	case EventRunning:
		return "running"
	case EventInhibited:
		return "inhibited"
	case EventCurrent:
		return "currentTemperature"
	case EventTarget:
		return "targetTemperature"
	case EventMode:
		return "mode"
	case EventDaylight:
		return "daylight"
	case EventPrevious:
		return "previousTransition"
	case EventScheduled:
		return "scheduledTransition"
	}
	return "unknown"
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for candidate := EventEnabled; candidate <= EventScheduled; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Transition describes a transition window the way it is reported to clients
type Transition struct {
	Start    time.Time     `json:"start" yaml:"start"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

func transitionOf(w models.TransitionWindow) Transition {
	if w.IsZero() {
		return Transition{}
	}
	return Transition{Start: w.Start, Duration: w.Duration()}
}

// Snapshot is the observable state of the scheduler at one instant
type Snapshot struct {
	Enabled            bool        `json:"enabled" yaml:"enabled"`
	Running            bool        `json:"running" yaml:"running"`
	Inhibited          bool        `json:"inhibited" yaml:"inhibited"`
	InhibitCount       int         `json:"inhibitCount" yaml:"inhibitCount"`
	Mode               models.Mode `json:"mode" yaml:"mode"`
	CurrentTemperature int         `json:"currentTemperature" yaml:"currentTemperature"`
	TargetTemperature  int         `json:"targetTemperature" yaml:"targetTemperature"`
	Daylight           bool        `json:"daylight" yaml:"daylight"`
	Previous           Transition  `json:"previousTransition" yaml:"previousTransition"`
	Scheduled          Transition  `json:"scheduledTransition" yaml:"scheduledTransition"`
	Previewing         bool        `json:"previewing" yaml:"previewing"`
	Phase              Phase       `json:"phase" yaml:"phase"`
}

// Event is published once for every field that actually changed
type Event struct {
	Kind  EventKind `json:"kind" yaml:"kind"`
	State Snapshot  `json:"state" yaml:"state"`
}

type Sink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(event Event)

func (f SinkFunc) Publish(event Event) {
	f(event)
}

// Sinks fans events out to several sinks in order
type Sinks []Sink

func (s Sinks) Publish(event Event) {
	for _, sink := range s {
		sink.Publish(event)
	}
}

// changes lists the kinds of the fields that differ between two snapshots
func changes(before, after Snapshot) []EventKind {
	var kinds []EventKind
	if before.Enabled != after.Enabled {
		kinds = append(kinds, EventEnabled)
	}
	if before.Running != after.Running {
		kinds = append(kinds, EventRunning)
	}
	if before.Inhibited != after.Inhibited {
		kinds = append(kinds, EventInhibited)
	}
	if before.CurrentTemperature != after.CurrentTemperature {
		kinds = append(kinds, EventCurrent)
	}
	if before.TargetTemperature != after.TargetTemperature {
		kinds = append(kinds, EventTarget)
	}
	if before.Mode != after.Mode {
		kinds = append(kinds, EventMode)
	}
	if before.Daylight != after.Daylight {
		kinds = append(kinds, EventDaylight)
	}
	if !before.Previous.Start.Equal(after.Previous.Start) || before.Previous.Duration != after.Previous.Duration {
		kinds = append(kinds, EventPrevious)
	}
	if !before.Scheduled.Start.Equal(after.Scheduled.Start) || before.Scheduled.Duration != after.Scheduled.Duration {
		kinds = append(kinds, EventScheduled)
	}
	return kinds
}
