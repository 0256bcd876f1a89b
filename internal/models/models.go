package models

import (
	"strings"
	"time"
)

// Mode selects how the transition windows are computed
type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeLocation  Mode = "location"
	ModeTimings   Mode = "timings"
	ModeConstant  Mode = "constant"
	// follows the shared dark/light appearance schedule
	ModeDarkLight Mode = "darklight"
)

// ParseMode never fails, unknown values select ModeAutomatic
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAutomatic, ModeLocation, ModeTimings, ModeConstant, ModeDarkLight:
		return m, true
	}
	return ModeAutomatic, false
}

// a period of time during which the temperature moves from one side's value to the other's
type TransitionWindow struct {
	Start time.Time
	End   time.Time
}

func (w TransitionWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w TransitionWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t is inside [Start, End]
func (w TransitionWindow) Contains(t time.Time) bool {
	return !w.IsZero() && !t.Before(w.Start) && !t.After(w.End)
}

func (w TransitionWindow) AddDate(years, months, days int) TransitionWindow {
	return TransitionWindow{Start: w.Start.AddDate(years, months, days), End: w.End.AddDate(years, months, days)}
}

type SchedulePair struct {
	Previous TransitionWindow
	Next     TransitionWindow
}

func (p SchedulePair) IsZero() bool {
	return p.Previous.IsZero() && p.Next.IsZero()
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Sanitised resets invalid coordinates to (0,0)
func (c Coordinates) Sanitised() Coordinates {
	if !c.Valid() {
		return Coordinates{}
	}
	return c
}

type FixedTimings struct {
	// offsets from local midnight
	MorningBegin      time.Duration
	EveningBegin      time.Duration
	TransitionMinutes int
}

func (f FixedTimings) Transition() time.Duration {
	return time.Duration(f.TransitionMinutes) * time.Minute
}

// Settings is the configuration snapshot the scheduler is driven from
type Settings struct {
	Active           bool
	Mode             Mode
	DayTemperature   int
	NightTemperature int
	AutoLocation     Coordinates
	FixedLocation    Coordinates
	Timings          FixedTimings
}

// journal entry for an output, as recorded by the device layer
type DeviceStatus struct {
	ID                  string     `json:"id" yaml:"id"`
	Name                string     `json:"name" yaml:"name"`
	LastTemperature     int        `json:"lastTemperature" yaml:"lastTemperature"`
	LastCommitTime      *time.Time `json:"lastCommitTime,omitempty" yaml:"lastCommitTime,omitempty"`
	LastError           string     `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures" yaml:"consecutiveFailures"`
}
