package nightlight

import (
	"github.com/google/uuid"
	"github.com/wheelibin/dusk/internal/constants"
)

// Token identifies one holder of an inhibition
type Token string

// inhibitions is a reference count of holders forcing the neutral temperature
type inhibitions struct {
	holders map[Token]string
}

func newInhibitions() inhibitions {
	return inhibitions{holders: map[Token]string{}}
}

func (i *inhibitions) add(name string) Token {
	token := Token(uuid.NewString())
	i.holders[token] = name
	return token
}

// release reports false for tokens that are unknown or were already released
func (i *inhibitions) release(token Token) bool {
	if _, ok := i.holders[token]; !ok {
		return false
	}
	delete(i.holders, token)
	return true
}

func (i *inhibitions) count() int {
	return len(i.holders)
}

// Inhibit suspends the schedule until the returned token is released
func (m *Manager) Inhibit(name string) Token {
	token := m.inhibitions.add(name)
	m.logger.Info("Inhibited", "by", name, "holders", m.inhibitions.count())
	if m.inhibitions.count() == 1 && !m.closed {
		m.resetAllTimers()
	}
	m.publish()
	return token
}

// Uninhibit releases an inhibition, the schedule resumes once the last one is gone
func (m *Manager) Uninhibit(token Token) bool {
	name := m.inhibitions.holders[token]
	if !m.inhibitions.release(token) {
		m.logger.Warn("Unknown inhibition token", "token", token)
		return false
	}
	if token == m.manualToken {
		m.manualToken = ""
	}
	m.logger.Info("Uninhibited", "by", name, "holders", m.inhibitions.count())
	if m.inhibitions.count() == 0 && !m.closed {
		m.resetAllTimers()
	}
	m.publish()
	return true
}

// Toggle flips the manual inhibition and reports whether it is now held
func (m *Manager) Toggle() bool {
	if m.manualToken != "" {
		m.Uninhibit(m.manualToken)
		return false
	}
	m.manualToken = m.Inhibit(constants.ManualInhibitor)
	return true
}
