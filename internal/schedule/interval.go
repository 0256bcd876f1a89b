package schedule

import (
	"math"
	"time"

	"github.com/wheelibin/dusk/internal/models"
)

type IntervalStep struct {
	Time        time.Time
	Temperature int
}

// Interval is a transition from one temperature to another over a period of time
type Interval struct {
	Start IntervalStep
	End   IntervalStep
}

// TemperatureAt returns the linearly interpolated temperature at timestamp, rounded to the nearest 10K.
// Timestamps outside the interval are clamped to its ends.
func (i Interval) TemperatureAt(timestamp time.Time) int {

	intervalDuration := i.End.Time.Sub(i.Start.Time)
	if intervalDuration <= 0 || !timestamp.After(i.Start.Time) {
		return i.Start.Temperature
	}
	if !timestamp.Before(i.End.Time) {
		return i.End.Temperature
	}

	intervalProgress := timestamp.Sub(i.Start.Time)
	percentProgress := intervalProgress.Seconds() / intervalDuration.Seconds()

	temperatureDiff := i.End.Temperature - i.Start.Temperature
	temperaturePercentageValue := float64(temperatureDiff) * percentProgress
	targetTemperature := float64(i.Start.Temperature) + temperaturePercentageValue

	return int(math.Round(targetTemperature/10) * 10)
}

// SideTemperature is the temperature of the side of the schedule we are on, ignoring any transition
func SideTemperature(daylight bool, day, night int) int {
	if daylight {
		return day
	}
	return night
}

// TargetFor returns the temperature the schedule wants at now
func TargetFor(mode models.Mode, res Resolution, now time.Time, day, night int) int {
	if mode == models.ModeConstant {
		return night
	}

	prev := res.Pair.Previous
	if !prev.Contains(now) {
		return SideTemperature(res.Daylight, day, night)
	}

	interval := Interval{
		Start: IntervalStep{Time: prev.Start, Temperature: SideTemperature(!res.Daylight, day, night)},
		End:   IntervalStep{Time: prev.End, Temperature: SideTemperature(res.Daylight, day, night)},
	}
	return interval.TemperatureAt(now)
}
