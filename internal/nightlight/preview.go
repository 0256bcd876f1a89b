package nightlight

import (
	"github.com/samber/lo"
	"github.com/wheelibin/dusk/internal/constants"
)

type preview struct {
	temperature int
	expiry      *task
}

// Preview shows temperature on every output for a short while, the settings are left untouched
func (m *Manager) Preview(temperature int) {
	if m.closed {
		return
	}
	if m.asleep {
		m.logger.Info("Session is asleep, ignoring preview", "temperature", temperature)
		return
	}
	temperature = lo.Clamp(temperature, constants.MinTemperature, constants.NeutralTemperature)

	if m.preview != nil {
		m.preview.expiry.cancel()
	}
	m.preview = &preview{temperature: temperature}
	m.logger.Info("Previewing", "temperature", temperature)

	m.quickAdjust(temperature)
	m.preview.expiry = m.after(constants.PreviewDuration, m.StopPreview)
	m.publish()
}

// StopPreview goes back to whatever the schedule wants now
func (m *Manager) StopPreview() {
	if m.preview == nil || m.closed {
		return
	}
	m.preview.expiry.cancel()
	m.preview = nil
	m.logger.Info("Preview stopped")

	m.resolveFull()
	m.quickAdjust(m.currentTarget())
	m.publish()
}

func (m *Manager) IsPreviewing() bool {
	return m.preview != nil
}
