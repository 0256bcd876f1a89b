package nightlight_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/dusk/internal/clock"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
	"github.com/wheelibin/dusk/internal/schedule"
)

var zone = time.FixedZone("UTC+1", 60*60)

type recordingOutput struct {
	commits []int
}

func (r *recordingOutput) Commit(temperature int) {
	r.commits = append(r.commits, temperature)
}

type fakeSession struct {
	active bool
	err    error
}

func (s *fakeSession) IsActive() (bool, error) {
	return s.active, s.err
}

type harness struct {
	manager *nightlight.Manager
	clock   *clock.Fake
	output  *recordingOutput
	session *fakeSession
	events  []nightlight.Event
}

func testSettings() models.Settings {
	return models.Settings{
		Active:           true,
		Mode:             models.ModeTimings,
		DayTemperature:   6500,
		NightTemperature: 4500,
		Timings: models.FixedTimings{
			MorningBegin:      6 * time.Hour,
			EveningBegin:      18 * time.Hour,
			TransitionMinutes: 30,
		},
	}
}

func newHarness(now time.Time) *harness {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	h := &harness{
		clock:   clock.NewFake(now),
		output:  &recordingOutput{},
		session: &fakeSession{active: true},
	}
	h.manager = nightlight.NewManager(
		logger,
		h.clock,
		func(f func()) { f() },
		schedule.NewResolver(logger),
		h.output,
		h.session,
		nightlight.SinkFunc(func(e nightlight.Event) { h.events = append(h.events, e) }),
	)
	return h
}

func startedAt(t *testing.T, now time.Time, settings models.Settings) *harness {
	t.Helper()
	h := newHarness(now)
	h.manager.Start(settings)
	h.events = nil
	return h
}

func (h *harness) kinds() []nightlight.EventKind {
	var kinds []nightlight.EventKind
	for _, e := range h.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func Test_Start_JumpsStraightToTarget(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())

	assert.Equal(t, []int{4500}, h.output.commits)
	assert.Equal(t, 4500, h.manager.CurrentTemperature())
	assert.Equal(t, 4500, h.manager.TargetTemperature())
	assert.True(t, h.manager.IsRunning())
	assert.False(t, h.manager.Daylight())
	assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	assert.Equal(t, time.Date(2023, 1, 2, 6, 0, 0, 0, zone), h.manager.ScheduledTransition().Start)
	assert.Equal(t, 30*time.Minute, h.manager.ScheduledTransition().Duration)
	assert.Equal(t, time.Date(2023, 1, 1, 18, 0, 0, 0, zone), h.manager.PreviousTransition().Start)
	assert.Equal(t, 1, h.clock.Pending())
}

func Test_DayCycle(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())

	// the morning transition starts
	h.clock.Advance(7 * time.Hour)
	assert.True(t, h.manager.Daylight())
	assert.Equal(t, nightlight.PhaseSlowAdjusting, h.manager.Phase())
	assert.Equal(t, 4500, h.manager.CurrentTemperature())
	assert.Equal(t, time.Date(2023, 1, 2, 18, 0, 0, 0, zone), h.manager.ScheduledTransition().Start)
	assert.Equal(t, 1, h.clock.Pending())

	// half way through
	h.clock.Advance(15 * time.Minute)
	assert.Equal(t, 5500, h.manager.CurrentTemperature())
	assert.Equal(t, 5500, h.manager.TargetTemperature())
	assert.Equal(t, 1, h.clock.Pending())

	// ends exactly as the window does
	h.clock.Advance(15 * time.Minute)
	assert.Equal(t, 6500, h.manager.CurrentTemperature())
	assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	assert.Equal(t, 1, h.clock.Pending())

	// and back down again in the evening
	h.clock.Advance(12 * time.Hour)
	assert.Equal(t, 4500, h.manager.CurrentTemperature())
	assert.False(t, h.manager.Daylight())
	assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	assert.Equal(t, time.Date(2023, 1, 3, 6, 0, 0, 0, zone), h.manager.ScheduledTransition().Start)

	// every step was exactly one step
	for i := 1; i < len(h.output.commits); i++ {
		assert.Equal(t, 50, abs(h.output.commits[i]-h.output.commits[i-1]), "commit %d", i)
	}
	assert.Len(t, h.output.commits, 1+40+40)
}

func Test_SlowAdjust_PartialStepEndsWithWindow(t *testing.T) {

	settings := testSettings()
	settings.NightTemperature = 6440
	h := startedAt(t, time.Date(2023, 1, 2, 5, 59, 0, 0, zone), settings)
	require.Equal(t, 6440, h.manager.CurrentTemperature())

	h.clock.Advance(time.Minute)
	require.Equal(t, nightlight.PhaseSlowAdjusting, h.manager.Phase())

	// 60K is one full step and one partial one
	h.clock.Advance(15 * time.Minute)
	assert.Equal(t, 6490, h.manager.CurrentTemperature())

	h.clock.Advance(15 * time.Minute)
	assert.Equal(t, 6500, h.manager.CurrentTemperature())
	assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	assert.Equal(t, time.Date(2023, 1, 2, 18, 0, 0, 0, zone), h.manager.ScheduledTransition().Start)
}

func Test_DrivingLaw_QuickAdjust(t *testing.T) {

	tests := []struct {
		name      string
		from, to  int
		tickCount int
	}{
		{"exact steps", 6500, 4500, 40},
		{"partial last step", 6500, 4520, 40},
		{"two steps", 6500, 6420, 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
			require.Equal(t, test.from, h.manager.CurrentTemperature())

			h.manager.Preview(test.to)
			assert.Equal(t, nightlight.PhaseQuickAdjusting, h.manager.Phase())

			ticks := 0
			for h.manager.CurrentTemperature() != test.to {
				before := abs(test.to - h.manager.CurrentTemperature())
				next, ok := h.clock.NextDue()
				require.True(t, ok)
				h.clock.Advance(next)
				after := abs(test.to - h.manager.CurrentTemperature())
				require.Equal(t, min(50, before), before-after)
				ticks++
			}
			assert.Equal(t, test.tickCount, ticks)
			assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
			// only the preview expiry is left
			assert.Equal(t, 1, h.clock.Pending())
		})
	}
}

func Test_QuickAdjust_FinishesWithinWindow(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
	h.manager.Preview(1000)

	h.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, 1000, h.manager.CurrentTemperature())

	// expiry returns to the schedule at the normal rate
	h.clock.Advance(15*time.Second - 250*time.Millisecond)
	assert.False(t, h.manager.IsPreviewing())
	assert.Equal(t, 6500, h.manager.TargetTemperature())
	assert.Equal(t, nightlight.PhaseQuickAdjusting, h.manager.Phase())

	h.clock.Advance(1999 * time.Millisecond)
	assert.NotEqual(t, 6500, h.manager.CurrentTemperature())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 6500, h.manager.CurrentTemperature())
	assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
}

func Test_SmallDifferenceIsCommittedDirectly(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
	h.manager.Preview(6480)

	assert.Equal(t, 6480, h.manager.CurrentTemperature())
	assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
	assert.Equal(t, []int{6500, 6480}, h.output.commits)
}

func Test_Inhibit(t *testing.T) {

	t.Run("at night the target collapses to neutral", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())
		require.Equal(t, 4500, h.manager.CurrentTemperature())

		token := h.manager.Inhibit("test")
		assert.True(t, h.manager.IsInhibited())
		assert.False(t, h.manager.IsRunning())
		assert.Equal(t, 6500, h.manager.TargetTemperature())

		h.clock.Advance(50 * time.Millisecond)
		assert.Equal(t, 4550, h.manager.CurrentTemperature())

		h.clock.Advance(2 * time.Second)
		assert.Equal(t, 6500, h.manager.CurrentTemperature())
		assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
		assert.Equal(t, 0, h.clock.Pending())

		assert.True(t, h.manager.Uninhibit(token))
		assert.True(t, h.manager.IsRunning())
		assert.Equal(t, 4500, h.manager.TargetTemperature())
		h.clock.Advance(2 * time.Second)
		assert.Equal(t, 4500, h.manager.CurrentTemperature())
		assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	})

	t.Run("during a transition it heads for neutral, not the day value", func(t *testing.T) {
		settings := testSettings()
		settings.DayTemperature = 5000
		h := startedAt(t, time.Date(2023, 1, 2, 6, 1, 0, 0, zone), settings)
		require.Equal(t, nightlight.PhaseSlowAdjusting, h.manager.Phase())
		require.Equal(t, 4520, h.manager.CurrentTemperature())

		h.manager.Inhibit("test")
		assert.Equal(t, 6500, h.manager.TargetTemperature())

		h.clock.Advance(50 * time.Millisecond)
		assert.Equal(t, 4570, h.manager.CurrentTemperature())
		h.clock.Advance(2 * time.Second)
		assert.Equal(t, 6500, h.manager.CurrentTemperature())
	})

	t.Run("unknown tokens are ignored", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())
		token := h.manager.Inhibit("test")

		assert.False(t, h.manager.Uninhibit("nope"))
		assert.True(t, h.manager.IsInhibited())

		assert.True(t, h.manager.Uninhibit(token))
		assert.False(t, h.manager.Uninhibit(token))
		assert.False(t, h.manager.IsInhibited())
	})
}

func Test_Inhibit_Composition(t *testing.T) {

	orders := [][]int{
		{0},
		{0, 1},
		{1, 0},
		{2, 0, 1},
		{1, 3, 0, 2},
	}

	for _, order := range orders {
		for _, active := range []bool{true, false} {
			settings := testSettings()
			settings.Active = active
			h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), settings)
			before := h.manager.IsRunning()

			tokens := make([]nightlight.Token, len(order))
			for i := range order {
				tokens[i] = h.manager.Inhibit("holder")
			}
			assert.False(t, h.manager.IsRunning())

			for i, idx := range order {
				h.manager.Uninhibit(tokens[idx])
				if i < len(order)-1 {
					assert.False(t, h.manager.IsRunning(), "released %d of %d", i+1, len(order))
					assert.True(t, h.manager.IsInhibited())
				}
			}
			assert.Equal(t, before, h.manager.IsRunning())
			assert.False(t, h.manager.IsInhibited())
		}
	}
}

func Test_Toggle(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())

	assert.True(t, h.manager.Toggle())
	assert.True(t, h.manager.IsInhibited())

	token := h.manager.Inhibit("other")

	assert.False(t, h.manager.Toggle())
	// still held by the other inhibitor
	assert.True(t, h.manager.IsInhibited())

	h.manager.Uninhibit(token)
	assert.False(t, h.manager.IsInhibited())
	assert.True(t, h.manager.IsRunning())
}

func Test_Events_ExactlyOnce(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 23, 0, 0, 0, zone), testSettings())

	h.manager.Inhibit("a")
	assert.Equal(t, []nightlight.EventKind{nightlight.EventRunning, nightlight.EventInhibited, nightlight.EventTarget}, h.kinds())
	assert.False(t, h.events[0].State.Running)

	h.events = nil
	h.clock.Advance(50 * time.Millisecond)
	assert.Equal(t, []nightlight.EventKind{nightlight.EventCurrent}, h.kinds())
	assert.Equal(t, 4550, h.events[0].State.CurrentTemperature)

	// nothing observable changes
	h.events = nil
	h.manager.Inhibit("b")
	assert.Empty(t, h.events)
}

func Test_Preview(t *testing.T) {

	t.Run("clamps to the temperature bounds", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
		h.manager.Preview(200)
		assert.Equal(t, 1000, h.manager.TargetTemperature())
		h.manager.Preview(9000)
		assert.Equal(t, 6500, h.manager.TargetTemperature())
	})

	t.Run("a new preview replaces the previous expiry", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
		h.manager.Preview(3000)
		h.clock.Advance(10 * time.Second)
		h.manager.Preview(2000)
		h.clock.Advance(10 * time.Second)
		assert.True(t, h.manager.IsPreviewing())
		assert.Equal(t, 2000, h.manager.CurrentTemperature())
		h.clock.Advance(5 * time.Second)
		assert.False(t, h.manager.IsPreviewing())
	})

	t.Run("no slow phase while previewing", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 17, 59, 55, 0, zone), testSettings())
		h.manager.Preview(3000)
		h.clock.Advance(10 * time.Second)
		// the evening started but the preview holds
		assert.Equal(t, 3000, h.manager.CurrentTemperature())
		assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
	})

	t.Run("stopping restores the uninterrupted schedule", func(t *testing.T) {
		start := time.Date(2023, 1, 1, 18, 5, 0, 0, zone)
		previewed := startedAt(t, start, testSettings())
		untouched := startedAt(t, start, testSettings())

		previewed.manager.Preview(2000)
		previewed.clock.Advance(5 * time.Second)
		untouched.clock.Advance(5 * time.Second)
		previewed.manager.StopPreview()

		assert.Equal(t, untouched.manager.TargetTemperature(), previewed.manager.TargetTemperature())
		assert.Equal(t, testSettings(), previewed.manager.Settings())

		previewed.clock.Advance(2 * time.Second)
		untouched.clock.Advance(2 * time.Second)
		assert.Equal(t, untouched.manager.TargetTemperature(), previewed.manager.TargetTemperature())
		assert.Equal(t, nightlight.PhaseSlowAdjusting, previewed.manager.Phase())
		assert.InDelta(t, untouched.manager.CurrentTemperature(), previewed.manager.CurrentTemperature(), 50)
	})

	t.Run("stopping without a preview does nothing", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
		h.manager.StopPreview()
		assert.Equal(t, []int{6500}, h.output.commits)
		assert.Empty(t, h.events)
	})
}

func Test_Resilience(t *testing.T) {

	noon := time.Date(2023, 1, 1, 12, 0, 0, 0, zone)
	night := time.Date(2023, 1, 1, 23, 0, 0, 0, zone)

	t.Run("clock skew with an active session jumps directly", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.clock.Set(night)
		h.manager.ClockSkewed()

		assert.Equal(t, []int{6500, 4500}, h.output.commits)
		assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
		assert.Equal(t, time.Date(2023, 1, 2, 6, 0, 0, 0, zone), h.manager.ScheduledTransition().Start)
		assert.Equal(t, 1, h.clock.Pending())
	})

	t.Run("resume into an asleep session waits for it to wake", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.session.active = false
		h.clock.Set(night)
		h.manager.Resumed()

		assert.True(t, h.manager.IsAsleep())
		assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
		assert.Equal(t, 0, h.clock.Pending())
		assert.Equal(t, []int{6500}, h.output.commits)

		h.session.active = true
		h.manager.SessionActiveChanged(true)
		assert.False(t, h.manager.IsAsleep())
		assert.Equal(t, []int{6500, 4500}, h.output.commits)
		assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	})

	t.Run("session query failure resets anyway", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.session.err = errors.New("no bus")
		h.clock.Set(night)
		h.manager.Resumed()
		assert.Equal(t, 4500, h.manager.CurrentTemperature())
	})

	t.Run("session going inactive cancels everything", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.manager.SessionActiveChanged(false)
		assert.Equal(t, 0, h.clock.Pending())
		h.clock.Advance(12 * time.Hour)
		assert.Equal(t, []int{6500}, h.output.commits)
	})

	t.Run("nothing is armed while asleep", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.manager.SessionActiveChanged(false)

		token := h.manager.Inhibit("test")
		h.manager.Preview(3000)
		h.manager.Uninhibit(token)
		h.manager.Inhibit("test")
		assert.Equal(t, 0, h.clock.Pending())
		assert.False(t, h.manager.IsPreviewing())

		h.clock.Advance(time.Minute)
		assert.Equal(t, []int{6500}, h.output.commits)

		// waking up applies the inhibition
		h.manager.SessionActiveChanged(true)
		assert.False(t, h.manager.IsRunning())
		assert.Equal(t, 6500, h.manager.TargetTemperature())
	})

	t.Run("a new device is brought in sync", func(t *testing.T) {
		h := startedAt(t, noon, testSettings())
		h.manager.DeviceAdded("hue:light-1")
		assert.Equal(t, []int{6500, 6500}, h.output.commits)
		assert.Equal(t, nightlight.PhaseSlowWaiting, h.manager.Phase())
	})
}

func Test_LocationUpdated(t *testing.T) {

	settings := testSettings()
	settings.Mode = models.ModeAutomatic
	settings.AutoLocation = models.Coordinates{Latitude: 51.507, Longitude: -0.1275}
	now := time.Date(2025, 4, 30, 12, 0, 0, 0, zone)

	tests := []struct {
		name     string
		location models.Coordinates
		accepted bool
	}{
		{"small move", models.Coordinates{Latitude: 51.9, Longitude: 0.5}, false},
		{"invalid", models.Coordinates{Latitude: 100, Longitude: 0}, false},
		{"far enough east", models.Coordinates{Latitude: 51.5, Longitude: 1.2}, true},
		{"far enough north", models.Coordinates{Latitude: 53.6, Longitude: -0.1275}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := startedAt(t, now, settings)
			before := h.manager.ScheduledTransition()

			h.manager.LocationUpdated(test.location)

			if test.accepted {
				assert.Equal(t, test.location, h.manager.Settings().AutoLocation)
				assert.NotEqual(t, before, h.manager.ScheduledTransition())
				assert.Contains(t, h.kinds(), nightlight.EventScheduled)
			} else {
				assert.Equal(t, settings.AutoLocation, h.manager.Settings().AutoLocation)
				assert.Equal(t, before, h.manager.ScheduledTransition())
				assert.Empty(t, h.events)
			}
		})
	}
}

func Test_Reconfigure(t *testing.T) {

	night := time.Date(2023, 1, 1, 23, 0, 0, 0, zone)

	t.Run("keeps the location from the provider", func(t *testing.T) {
		settings := testSettings()
		settings.Mode = models.ModeAutomatic
		h := startedAt(t, time.Date(2025, 4, 30, 12, 0, 0, 0, zone), settings)

		london := models.Coordinates{Latitude: 51.507, Longitude: -0.1275}
		h.manager.LocationUpdated(london)
		scheduled := h.manager.ScheduledTransition()

		settings.NightTemperature = 3000
		h.manager.Reconfigure(settings)

		assert.Equal(t, london, h.manager.Settings().AutoLocation)
		assert.Equal(t, scheduled, h.manager.ScheduledTransition())
		assert.Equal(t, 3000, h.manager.Settings().NightTemperature)
	})

	t.Run("new night temperature is applied directly", func(t *testing.T) {
		h := startedAt(t, night, testSettings())
		settings := testSettings()
		settings.NightTemperature = 3000
		h.manager.Reconfigure(settings)
		assert.Equal(t, []int{4500, 3000}, h.output.commits)
	})

	t.Run("constant mode", func(t *testing.T) {
		h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
		settings := testSettings()
		settings.Mode = models.ModeConstant
		h.manager.Reconfigure(settings)

		assert.Equal(t, 4500, h.manager.CurrentTemperature())
		assert.Equal(t, 4500, h.manager.TargetTemperature())
		assert.False(t, h.manager.Daylight())
		assert.Equal(t, nightlight.Transition{}, h.manager.ScheduledTransition())
		assert.Equal(t, nightlight.PhaseIdle, h.manager.Phase())
		assert.Equal(t, 0, h.clock.Pending())
		assert.Contains(t, h.kinds(), nightlight.EventMode)
	})

	t.Run("disabling fades back to neutral", func(t *testing.T) {
		h := startedAt(t, night, testSettings())
		settings := testSettings()
		settings.Active = false
		h.manager.Reconfigure(settings)

		assert.False(t, h.manager.IsEnabled())
		assert.False(t, h.manager.IsRunning())
		assert.Equal(t, 6500, h.manager.TargetTemperature())
		assert.Equal(t, nightlight.PhaseQuickAdjusting, h.manager.Phase())
		h.clock.Advance(2 * time.Second)
		assert.Equal(t, 6500, h.manager.CurrentTemperature())
		assert.Equal(t, 0, h.clock.Pending())
	})

	t.Run("invalid values are replaced", func(t *testing.T) {
		h := startedAt(t, night, testSettings())
		settings := testSettings()
		settings.Mode = "sideways"
		settings.DayTemperature = 9000
		settings.NightTemperature = 10
		settings.FixedLocation = models.Coordinates{Latitude: -91, Longitude: 12}
		settings.Timings.TransitionMinutes = 0
		settings.Timings.MorningBegin = 9 * time.Hour
		h.manager.Reconfigure(settings)

		applied := h.manager.Settings()
		assert.Equal(t, models.ModeAutomatic, applied.Mode)
		assert.Equal(t, 6500, applied.DayTemperature)
		assert.Equal(t, 1000, applied.NightTemperature)
		assert.Equal(t, models.Coordinates{}, applied.FixedLocation)
		assert.Equal(t, testSettings().Timings, applied.Timings)
	})
}

func Test_Close(t *testing.T) {

	h := startedAt(t, time.Date(2023, 1, 1, 12, 0, 0, 0, zone), testSettings())
	h.manager.Preview(3000)
	h.manager.Close()

	commits := len(h.output.commits)
	h.clock.Advance(24 * time.Hour)
	h.manager.Preview(2000)
	h.manager.ClockSkewed()
	h.manager.Reconfigure(testSettings())

	assert.Len(t, h.output.commits, commits)
	assert.Equal(t, 0, h.clock.Pending())
}

func Test_CancelledTaskNeverRuns(t *testing.T) {

	// callbacks queue up instead of running straight away, like on the real control goroutine
	var queue []func()
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	clk := clock.NewFake(time.Date(2023, 1, 1, 12, 0, 0, 0, zone))
	output := &recordingOutput{}
	m := nightlight.NewManager(logger, clk, func(f func()) { queue = append(queue, f) }, schedule.NewResolver(logger), output, nil, nil)

	m.Start(testSettings())
	m.Preview(3000)
	clk.Advance(10 * time.Millisecond)
	require.Len(t, queue, 1)

	// the tick is queued, cancel it before it runs
	m.Inhibit("test")
	commits := len(output.commits)
	for _, f := range queue {
		f()
	}
	assert.Len(t, output.commits, commits)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
