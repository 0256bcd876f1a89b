package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/solar"
)

// Source holds everything the transition windows are computed from
type Source struct {
	AutoLocation  models.Coordinates
	FixedLocation models.Coordinates
	Timings       models.FixedTimings
}

// Resolution is the outcome of resolving a schedule at an instant
type Resolution struct {
	Pair     models.SchedulePair
	Daylight bool
}

// windowFunc returns the morning or evening window for the calendar day of date
type windowFunc func(date time.Time, morning bool) models.TransitionWindow

type transition struct {
	window  models.TransitionWindow
	morning bool
}

func solarWindows(location models.Coordinates) windowFunc {
	return func(date time.Time, morning bool) models.TransitionWindow {
		return solar.ComputeTransition(date, location.Latitude, location.Longitude, morning)
	}
}

func timingsWindows(timings models.FixedTimings) windowFunc {
	return func(date time.Time, morning bool) models.TransitionWindow {
		begin := timings.EveningBegin
		if morning {
			begin = timings.MorningBegin
		}
		start := atTimeOfDay(date, begin)
		return models.TransitionWindow{Start: start, End: start.Add(timings.Transition())}
	}
}

// windowsFor picks the window calculation for a mode, nil means there are no transitions
func windowsFor(mode models.Mode, src Source) windowFunc {
	switch mode {
	case models.ModeAutomatic:
		return solarWindows(src.AutoLocation)
	case models.ModeLocation:
		return solarWindows(src.FixedLocation)
	case models.ModeTimings:
		return timingsWindows(src.Timings)
	case models.ModeDarkLight:
		// sun times once the location is known, the fixed timings until then
		if src.AutoLocation != (models.Coordinates{}) {
			return solarWindows(src.AutoLocation)
		}
		return timingsWindows(src.Timings)
	}
	return nil
}

// resolveFull computes the windows straddling now from scratch
func resolveFull(windows windowFunc, now time.Time) Resolution {

	candidates := make([]transition, 0, 6)
	for offset := -1; offset <= 1; offset++ {
		day := noonOf(now, offset)
		candidates = append(candidates,
			transition{windows(day, true), true},
			transition{windows(day, false), false},
		)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].window.Start.Before(candidates[j].window.Start)
	})

	// the last transition that has already started is the previous one
	prev := 0
	for i, c := range candidates[:len(candidates)-1] {
		if !c.window.Start.After(now) {
			prev = i
		}
	}

	return Resolution{
		Pair: models.SchedulePair{
			Previous: candidates[prev].window,
			Next:     candidates[prev+1].window,
		},
		Daylight: candidates[prev].morning,
	}
}

// resolveNext moves the schedule on by one transition: the old next becomes the previous
// and the first transition of the other kind after it becomes the next
func resolveNext(windows windowFunc, last Resolution) Resolution {
	previous := last.Pair.Next
	// previous is a morning when we were in the night
	daylight := !last.Daylight
	wantMorning := !daylight

	next := models.TransitionWindow{}
	for offset := 0; offset <= 2; offset++ {
		next = windows(noonOf(previous.Start, offset), wantMorning)
		if next.Start.After(previous.Start) {
			break
		}
	}

	return Resolution{
		Pair:     models.SchedulePair{Previous: previous, Next: next},
		Daylight: daylight,
	}
}

// IsValid is the sanity check a resolution must pass to be reused at now
func IsValid(res Resolution, now time.Time) bool {
	prev, next := res.Pair.Previous, res.Pair.Next
	if prev.IsZero() || next.IsZero() {
		return false
	}
	if prev.Start.After(now) || !now.Before(next.Start) {
		return false
	}
	return next.Start.Sub(prev.Start) < constants.MaxTransitionSpacing
}

// ValidateTimings replaces fixed timings that can't produce a sensible schedule with the defaults,
// the second return value reports whether they were kept
func ValidateTimings(timings models.FixedTimings) (models.FixedTimings, bool) {
	fallback := models.FixedTimings{
		MorningBegin:      constants.DefaultMorningBegin,
		EveningBegin:      constants.DefaultEveningBegin,
		TransitionMinutes: constants.DefaultTransitionMinutes,
	}

	if timings.TransitionMinutes < 1 {
		return fallback, false
	}
	day := 24 * time.Hour
	if timings.MorningBegin < 0 || timings.MorningBegin >= day || timings.EveningBegin < 0 || timings.EveningBegin >= day {
		return fallback, false
	}

	// the shorter of the day and night spans
	span := timings.EveningBegin - timings.MorningBegin
	if span < 0 {
		span = -span
	}
	span = min(span, day-span)

	if timings.Transition() >= span/2 {
		return fallback, false
	}
	return timings, true
}

// ParseTimeOfDay returns the offset from midnight of a config time string, "06:30" or "0630"
func ParseTimeOfDay(timeString string) (time.Duration, error) {
	s := strings.TrimSpace(timeString)

	var hourPart, minPart string
	if h, m, found := strings.Cut(s, ":"); found {
		hourPart, minPart = h, m
	} else if len(s) == 4 {
		hourPart, minPart = s[:2], s[2:]
	} else {
		return 0, fmt.Errorf("Error parsing time of day %q: expected HH:MM", timeString)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("Error parsing hour of %q: %w", timeString, err)
	}
	mins, err := strconv.Atoi(minPart)
	if err != nil {
		return 0, fmt.Errorf("Error parsing minutes of %q: %w", timeString, err)
	}
	if hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("Error parsing time of day %q: out of range", timeString)
	}

	return time.Duration(hour)*time.Hour + time.Duration(mins)*time.Minute, nil
}

// FormatTimeOfDay is the inverse of ParseTimeOfDay
func FormatTimeOfDay(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// returns the wall clock time of day on the calendar day of date,
// built field by field so DST days keep their local times
func atTimeOfDay(date time.Time, offset time.Duration) time.Time {
	hour := int(offset / time.Hour)
	mins := int((offset % time.Hour) / time.Minute)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, mins, 0, 0, date.Location())
}

func noonOf(t time.Time, dayOffset int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+dayOffset, 12, 0, 0, 0, t.Location())
}
