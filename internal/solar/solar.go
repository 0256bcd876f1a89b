package solar

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/models"
)

// sun elevations (degrees) bounding the transition windows
const (
	CivilTwilight = -6.0
	SunHigh       = 2.0
)

const degree = math.Pi / 180

// Calculate returns the raw morning ([civil dawn, sun reaches SunHigh]) or evening
// ([sun leaves SunHigh, civil dusk]) window for the calendar date of t, in t's location.
// Near the poles the sun may never cross an elevation, the matching bound is then zero.
func Calculate(t time.Time, latitude, longitude float64, morning bool) models.TransitionWindow {
	year, month, day := t.Date()

	var (
		d                 = sunrise.MeanSolarNoon(longitude, year, month, day)
		solarAnomaly      = sunrise.SolarMeanAnomaly(d)
		equationOfCenter  = sunrise.EquationOfCenter(solarAnomaly)
		eclipticLongitude = sunrise.EclipticLongitude(solarAnomaly, equationOfCenter, d)
		solarTransit      = sunrise.SolarTransit(d, solarAnomaly, eclipticLongitude)
		declination       = sunrise.Declination(eclipticLongitude)
	)

	twilight := hourAngle(latitude, declination, CivilTwilight)
	high := hourAngle(latitude, declination, SunHigh)

	var w models.TransitionWindow
	if morning {
		w.Start = julianToTime(solarTransit, -twilight, t.Location())
		w.End = julianToTime(solarTransit, -high, t.Location())
	} else {
		w.Start = julianToTime(solarTransit, high, t.Location())
		w.End = julianToTime(solarTransit, twilight, t.Location())
	}
	return w
}

// ComputeTransition is Calculate with the polar fallbacks applied, it always returns a usable window
func ComputeTransition(t time.Time, latitude, longitude float64, morning bool) models.TransitionWindow {
	w := Calculate(t, latitude, longitude, morning)

	switch {
	case !w.Start.IsZero() && !w.End.IsZero():
		return w
	case !w.Start.IsZero():
		w.End = w.Start.Add(constants.FallbackTransitionDuration)
	case !w.End.IsZero():
		w.Start = w.End.Add(-constants.FallbackTransitionDuration)
	default:
		// no sunrise or sunset at all, use placeholder times
		reference := constants.DefaultEveningBegin
		if morning {
			reference = constants.DefaultMorningBegin
		}
		year, month, day := t.Date()
		w.Start = time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Add(reference)
		w.End = w.Start.Add(constants.FallbackTransitionDuration)
	}
	return w
}

// hourAngle returns the hour angle (degrees) at which the sun is at the given elevation,
// or NaN if it never gets there on that day
func hourAngle(latitude, declination, elevation float64) float64 {
	cosH := (math.Sin(elevation*degree) - math.Sin(latitude*degree)*math.Sin(declination*degree)) /
		(math.Cos(latitude*degree) * math.Cos(declination*degree))
	if math.IsNaN(cosH) || cosH < -1 || cosH > 1 {
		return math.NaN()
	}
	return math.Acos(cosH) / degree
}

func julianToTime(transit, angle float64, loc *time.Location) time.Time {
	if math.IsNaN(angle) {
		return time.Time{}
	}
	return sunrise.JulianDayToTime(transit + angle/360).In(loc)
}
