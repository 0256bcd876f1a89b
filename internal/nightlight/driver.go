package nightlight

import (
	"fmt"
	"time"

	"github.com/wheelibin/dusk/internal/clock"
	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/schedule"
)

// Phase is what the driver is currently doing to the temperature
type Phase int

const (
	PhaseIdle Phase = iota
	// catching up with the target quickly
	PhaseQuickAdjusting
	// waiting for the next transition to start
	PhaseSlowWaiting
	// following a transition window
	PhaseSlowAdjusting
)

func (p Phase) String() string {
	switch p {
	case PhaseQuickAdjusting:
		return "quickAdjusting"
	case PhaseSlowWaiting:
		return "slowWaiting"
	case PhaseSlowAdjusting:
		return "slowAdjusting"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseIdle; candidate <= PhaseSlowAdjusting; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// task is a timed call whose callback runs on the control goroutine.
// Once cancelled it never runs, even if its timer already fired and the call is queued.
type task struct {
	timer     clock.Timer
	cancelled bool
}

func (t *task) cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// after runs fn once on the control goroutine when d has elapsed
func (m *Manager) after(d time.Duration, fn func()) *task {
	t := &task{}
	t.timer = m.clock.AfterFunc(d, func() {
		m.post(func() {
			if t.cancelled || m.closed {
				return
			}
			t.cancelled = true
			fn()
			m.publish()
		})
	})
	return t
}

// every runs fn on the control goroutine every interval until cancelled
func (m *Manager) every(interval time.Duration, fn func()) *task {
	t := &task{}
	var arm func()
	arm = func() {
		t.timer = m.clock.AfterFunc(interval, func() {
			m.post(func() {
				if t.cancelled || m.closed {
					return
				}
				fn()
				if !t.cancelled {
					arm()
				}
				m.publish()
			})
		})
	}
	arm()
	return t
}

// driver holds the three timed tasks that move the current temperature, at most one is ever live
type driver struct {
	phase      Phase
	quick      *task
	slowWait   *task
	slowAdjust *task
}

func (d *driver) cancelAll() {
	d.quick.cancel()
	d.slowWait.cancel()
	d.slowAdjust.cancel()
	d.quick, d.slowWait, d.slowAdjust = nil, nil, nil
	d.phase = PhaseIdle
}

// quickAdjust catches the current temperature up with target within a bounded time
func (m *Manager) quickAdjust(target int) {
	m.driver.cancelAll()
	if m.asleep {
		return
	}

	diff := abs(target - m.current)
	if diff <= constants.TemperatureStep {
		m.settle(target)
		return
	}

	window := constants.QuickAdjustDuration
	if m.preview != nil {
		window = constants.QuickAdjustDurationPreview
	}
	interval := max(window/time.Duration(steps(diff)), constants.MinTaskInterval)

	m.logger.Debug("Quick adjusting", "from", m.current, "to", target, "interval", interval)
	m.driver.phase = PhaseQuickAdjusting
	m.driver.quick = m.every(interval, func() {
		m.commit(stepTowards(m.current, target))
		if m.current == target {
			m.driver.cancelAll()
			m.settle(target)
		}
	})
}

// settle is where the driver goes once no quick adjustment is needed
func (m *Manager) settle(target int) {
	if m.slowEligible() {
		m.slowUpdate()
		return
	}
	if m.current != target {
		m.commit(target)
	}
}

func (m *Manager) slowEligible() bool {
	return m.running && m.preview == nil && m.settings.Mode != models.ModeConstant
}

// slowUpdate follows the transition window we are in, if any, then waits for the next one
func (m *Manager) slowUpdate() {
	m.driver.cancelAll()
	if !m.slowEligible() {
		return
	}

	now := m.clock.Now()
	m.res = m.resolver.Resolve(m.settings.Mode, now, m.source(), false, m.res)

	side := schedule.SideTemperature(m.res.Daylight, m.settings.DayTemperature, m.settings.NightTemperature)
	prev := m.res.Pair.Previous

	if m.current != side && prev.Contains(now) && now.Before(prev.End) {
		remaining := prev.End.Sub(now)
		// the last, possibly partial, step lands as the window ends
		interval := max(remaining/time.Duration(steps(abs(side-m.current))), constants.MinTaskInterval)

		m.logger.Debug("Slow adjusting", "from", m.current, "to", side, "interval", interval)
		m.driver.phase = PhaseSlowAdjusting
		m.driver.slowAdjust = m.every(interval, func() {
			m.commit(stepTowards(m.current, side))
			if m.current == side {
				m.driver.cancelAll()
				m.armSlowWait()
			}
		})
		return
	}

	if m.current != side {
		m.commit(side)
	}
	m.armSlowWait()
}

func (m *Manager) armSlowWait() {
	if !m.slowEligible() || m.res.Pair.Next.IsZero() {
		return
	}
	wait := max(m.res.Pair.Next.Start.Sub(m.clock.Now()), 0)

	m.logger.Debug("Waiting for the next transition", "start", m.res.Pair.Next.Start, "in", wait)
	m.driver.phase = PhaseSlowWaiting
	m.driver.slowWait = m.after(wait, m.slowUpdate)
}

// commit pushes temperature to every output. It never re-arms anything.
func (m *Manager) commit(temperature int) {
	m.devices.Commit(temperature)
	m.current = temperature
}

// steps is how many ticks it takes to cover diff
func steps(diff int) int {
	return (diff + constants.TemperatureStep - 1) / constants.TemperatureStep
}

func stepTowards(current, target int) int {
	if current < target {
		return min(current+constants.TemperatureStep, target)
	}
	return max(current-constants.TemperatureStep, target)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
