package nightlight

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/dusk/internal/clock"
	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/schedule"
)

// receives every committed temperature, must not block
type committer interface {
	Commit(temperature int)
}

// SessionState answers whether the user session is currently active (i.e. not asleep)
type SessionState interface {
	IsActive() (bool, error)
}

// Manager owns the scheduler state. Apart from NewManager every method must be called
// on the control goroutine, the same one post delivers timed callbacks to.
type Manager struct {
	logger   *log.Logger
	clock    clock.Clock
	post     func(func())
	resolver *schedule.Resolver
	devices  committer
	session  SessionState
	sink     Sink

	settings    models.Settings
	res         schedule.Resolution
	running     bool
	current     int
	driver      driver
	inhibitions inhibitions
	manualToken Token
	preview     *preview
	// the session went to sleep, nothing is armed until it comes back
	asleep bool
	// last location accepted from the provider, it outlives config reloads
	pushedLocation *models.Coordinates
	closed bool

	last Snapshot
}

func NewManager(
	logger *log.Logger,
	clk clock.Clock,
	post func(func()),
	resolver *schedule.Resolver,
	devices committer,
	session SessionState,
	sink Sink,
) *Manager {
	m := &Manager{
		logger:      logger,
		clock:       clk,
		post:        post,
		resolver:    resolver,
		devices:     devices,
		session:     session,
		sink:        sink,
		current:     constants.NeutralTemperature,
		inhibitions: newInhibitions(),
	}
	m.last = m.Snapshot()
	return m
}

// Start applies the initial settings and brings every output in line with them
func (m *Manager) Start(settings models.Settings) {
	m.settings = m.normalise(settings)
	m.logger.Info("Starting night light", "active", m.settings.Active, "mode", m.settings.Mode)
	m.hardReset()
	m.publish()
}

// Reconfigure replaces the settings, e.g. after the config file changed
func (m *Manager) Reconfigure(settings models.Settings) {
	if m.closed {
		return
	}
	m.driver.cancelAll()
	m.settings = m.normalise(settings)
	if m.pushedLocation != nil {
		m.settings.AutoLocation = *m.pushedLocation
	}
	m.logger.Info("Reconfigured", "active", m.settings.Active, "mode", m.settings.Mode)
	m.hardReset()
	m.publish()
}

// LocationUpdated takes a new automatic location, small moves are ignored
func (m *Manager) LocationUpdated(location models.Coordinates) {
	if m.closed {
		return
	}
	if !location.Valid() {
		m.logger.Warn("Ignoring invalid location", "latitude", location.Latitude, "longitude", location.Longitude)
		return
	}
	current := m.settings.AutoLocation
	if math.Abs(current.Latitude-location.Latitude) < constants.LocationToleranceLatitude &&
		math.Abs(current.Longitude-location.Longitude) < constants.LocationToleranceLongitude {
		m.logger.Debug("Location barely changed, ignoring", "latitude", location.Latitude, "longitude", location.Longitude)
		return
	}

	m.logger.Info("Location changed", "latitude", location.Latitude, "longitude", location.Longitude)
	m.settings.AutoLocation = location
	m.pushedLocation = &location
	m.driver.cancelAll()
	m.resetAllTimers()
	m.publish()
}

// Close cancels everything, nothing runs after it returns
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.driver.cancelAll()
	if m.preview != nil {
		m.preview.expiry.cancel()
		m.preview = nil
	}
	m.closed = true
	m.logger.Debug("Night light closed")
}

// Settings returns the settings in effect, after validation
func (m *Manager) Settings() models.Settings {
	return m.settings
}

func (m *Manager) IsEnabled() bool { return m.settings.Active }
func (m *Manager) IsRunning() bool { return m.running }
func (m *Manager) IsInhibited() bool { return m.inhibitions.count() > 0 }
func (m *Manager) CurrentTemperature() int { return m.current }
func (m *Manager) Mode() models.Mode { return m.settings.Mode }
func (m *Manager) Daylight() bool { return m.res.Daylight }
func (m *Manager) Phase() Phase { return m.driver.phase }

func (m *Manager) PreviousTransition() Transition {
	return transitionOf(m.res.Pair.Previous)
}

func (m *Manager) ScheduledTransition() Transition {
	return transitionOf(m.res.Pair.Next)
}

// TargetTemperature is the temperature the outputs are heading for right now
func (m *Manager) TargetTemperature() int {
	if m.preview != nil {
		return m.preview.temperature
	}
	return m.currentTarget()
}

func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Enabled:            m.IsEnabled(),
		Running:            m.IsRunning(),
		Inhibited:          m.IsInhibited(),
		InhibitCount:       m.inhibitions.count(),
		Mode:               m.Mode(),
		CurrentTemperature: m.CurrentTemperature(),
		TargetTemperature:  m.TargetTemperature(),
		Daylight:           m.Daylight(),
		Previous:           m.PreviousTransition(),
		Scheduled:          m.ScheduledTransition(),
		Previewing:         m.preview != nil,
		Phase:              m.Phase(),
	}
}

// publish sends one event per field that changed since the last publish
func (m *Manager) publish() {
	snapshot := m.Snapshot()
	kinds := changes(m.last, snapshot)
	m.last = snapshot
	if m.sink == nil {
		return
	}
	for _, kind := range kinds {
		m.sink.Publish(Event{Kind: kind, State: snapshot})
	}
}

// currentTarget is what the schedule alone wants at this instant
func (m *Manager) currentTarget() int {
	if !m.running {
		return constants.NeutralTemperature
	}
	return schedule.TargetFor(m.settings.Mode, m.res, m.clock.Now(), m.settings.DayTemperature, m.settings.NightTemperature)
}

// armTarget is what the driver should head for when it is re-armed
func (m *Manager) armTarget() int {
	if m.preview != nil {
		return m.preview.temperature
	}
	return m.currentTarget()
}

func (m *Manager) updateRunning() {
	running := m.settings.Active && m.inhibitions.count() == 0
	if running != m.running {
		m.logger.Info("Night light running changed", "running", running)
	}
	m.running = running
}

func (m *Manager) source() schedule.Source {
	return schedule.Source{
		AutoLocation:  m.settings.AutoLocation,
		FixedLocation: m.settings.FixedLocation,
		Timings:       m.settings.Timings,
	}
}

func (m *Manager) resolveFull() {
	m.res = m.resolver.Resolve(m.settings.Mode, m.clock.Now(), m.source(), true, schedule.Resolution{})
}

// resetAllTimers recomputes everything and catches up gradually
func (m *Manager) resetAllTimers() {
	m.driver.cancelAll()
	m.updateRunning()
	m.resolveFull()
	m.quickAdjust(m.armTarget())
}

// hardReset recomputes everything and jumps straight to the result
func (m *Manager) hardReset() {
	m.driver.cancelAll()
	m.asleep = false
	m.updateRunning()
	m.resolveFull()
	if m.running && m.preview == nil {
		m.commit(m.currentTarget())
	}
	m.resetAllTimers()
}

// normalise replaces anything out of range with its default
func (m *Manager) normalise(settings models.Settings) models.Settings {

	if mode, ok := models.ParseMode(string(settings.Mode)); ok {
		settings.Mode = mode
	} else {
		m.logger.Warn("Unknown mode, using automatic", "mode", settings.Mode)
		settings.Mode = models.ModeAutomatic
	}

	clamp := func(name string, value int) int {
		clamped := lo.Clamp(value, constants.MinTemperature, constants.NeutralTemperature)
		if clamped != value {
			m.logger.Warn("Temperature out of range", "setting", name, "value", value, "using", clamped)
		}
		return clamped
	}
	settings.DayTemperature = clamp("dayTemperature", settings.DayTemperature)
	settings.NightTemperature = clamp("nightTemperature", settings.NightTemperature)

	if !settings.AutoLocation.Valid() {
		m.logger.Warn("Invalid automatic location, using 0,0", "latitude", settings.AutoLocation.Latitude, "longitude", settings.AutoLocation.Longitude)
	}
	if !settings.FixedLocation.Valid() {
		m.logger.Warn("Invalid fixed location, using 0,0", "latitude", settings.FixedLocation.Latitude, "longitude", settings.FixedLocation.Longitude)
	}
	settings.AutoLocation = settings.AutoLocation.Sanitised()
	settings.FixedLocation = settings.FixedLocation.Sanitised()

	timings, ok := schedule.ValidateTimings(settings.Timings)
	if !ok {
		m.logger.Warn("Invalid fixed timings, using defaults",
			"morning", schedule.FormatTimeOfDay(settings.Timings.MorningBegin),
			"evening", schedule.FormatTimeOfDay(settings.Timings.EveningBegin),
			"transitionMinutes", settings.Timings.TransitionMinutes,
		)
	}
	settings.Timings = timings

	return settings
}
