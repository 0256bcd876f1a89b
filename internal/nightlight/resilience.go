package nightlight

// ClockSkewed handles the wall clock jumping, e.g. the user changed it
func (m *Manager) ClockSkewed() {
	m.resync("clock skew")
}

// Resumed handles the machine waking up from suspend
func (m *Manager) Resumed() {
	m.resync("resume")
}

// resync hard resets unless the session is known to be asleep,
// in which case the reset waits until it becomes active again
func (m *Manager) resync(reason string) {
	if m.closed {
		return
	}
	if m.session != nil {
		active, err := m.session.IsActive()
		switch {
		case err != nil:
			m.logger.Warn("Unable to query the session state, resetting anyway", "reason", reason, "err", err)
		case !active:
			m.logger.Info("Session is asleep, waiting for it to wake up", "reason", reason)
			m.sleep()
			m.publish()
			return
		}
	}
	m.logger.Info("Resetting", "reason", reason)
	m.hardReset()
	m.publish()
}

// SessionActiveChanged stops everything while the session is inactive and resyncs when it comes back
func (m *Manager) SessionActiveChanged(active bool) {
	if m.closed {
		return
	}
	if !active {
		m.logger.Info("Session inactive, pausing")
		m.sleep()
		m.publish()
		return
	}
	m.logger.Info("Session active, resetting")
	m.hardReset()
	m.publish()
}

// DeviceAdded brings a new output in line with everything else
func (m *Manager) DeviceAdded(name string) {
	if m.closed {
		return
	}
	m.logger.Info("Output added, resetting", "output", name)
	m.hardReset()
	m.publish()
}

func (m *Manager) IsAsleep() bool {
	return m.asleep
}

func (m *Manager) sleep() {
	m.driver.cancelAll()
	m.asleep = true
}
