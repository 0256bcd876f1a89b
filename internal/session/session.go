package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
)

const (
	login1Dest          = "org.freedesktop.login1"
	login1Path          = dbus.ObjectPath("/org/freedesktop/login1")
	managerInterface    = "org.freedesktop.login1.Manager"
	sessionInterface    = "org.freedesktop.login1.Session"
	propertiesInterface = "org.freedesktop.DBus.Properties"

	signalPrepareForSleep   = managerInterface + ".PrepareForSleep"
	signalPropertiesChanged = propertiesInterface + ".PropertiesChanged"
)

// ErrUnknown is returned by IsActive until the session state has been read
var ErrUnknown = errors.New("session state unknown")

// Monitor follows the logind session and the system's sleep state
type Monitor struct {
	logger          *log.Logger
	onResumed       func()
	onActiveChanged func(active bool)

	conn        *dbus.Conn
	sessionPath dbus.ObjectPath
	signals     chan *dbus.Signal

	mu     sync.RWMutex
	active bool
	known  bool
}

func NewMonitor(logger *log.Logger, onResumed func(), onActiveChanged func(active bool)) *Monitor {
	return &Monitor{
		logger:          logger,
		onResumed:       onResumed,
		onActiveChanged: onActiveChanged,
	}
}

// Connect finds our session on the system bus and subscribes to its signals
func (m *Monitor) Connect() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("Error connecting to the system bus: %w", err)
	}

	id := os.Getenv("XDG_SESSION_ID")
	if id == "" {
		id = "auto"
	}
	var sessionPath dbus.ObjectPath
	err = conn.Object(login1Dest, login1Path).Call(managerInterface+".GetSession", 0, id).Store(&sessionPath)
	if err != nil {
		conn.Close()
		return fmt.Errorf("Error finding logind session (%s): %w", id, err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(managerInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("Error subscribing to PrepareForSleep: %w", err)
	}
	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(sessionPath),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("Error subscribing to session properties: %w", err)
	}

	m.conn = conn
	m.sessionPath = sessionPath
	m.signals = make(chan *dbus.Signal, 16)
	conn.Signal(m.signals)

	if err := m.refresh(); err != nil {
		m.logger.Warn("Unable to read session state", "err", err)
	}
	m.logger.Info("Following logind session", "path", sessionPath)
	return nil
}

// Run handles signals until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	if m.conn == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			m.HandleSignal(sig)
		}
	}
}

func (m *Monitor) Close() {
	if m.conn != nil {
		m.conn.RemoveSignal(m.signals)
		m.conn.Close()
	}
}

// IsActive returns the last known session state, it never blocks on the bus
func (m *Monitor) IsActive() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.known {
		return false, ErrUnknown
	}
	return m.active, nil
}

func (m *Monitor) HandleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}
	switch sig.Name {

	case signalPrepareForSleep:
		if len(sig.Body) < 1 {
			return
		}
		start, ok := sig.Body[0].(bool)
		if !ok {
			return
		}
		if start {
			m.logger.Debug("System going to sleep")
			return
		}
		m.logger.Info("System resumed")
		m.onResumed()

	case signalPropertiesChanged:
		if len(sig.Body) < 3 {
			return
		}
		if iface, _ := sig.Body[0].(string); iface != sessionInterface {
			return
		}
		if changed, ok := sig.Body[1].(map[string]dbus.Variant); ok {
			if v, found := changed["Active"]; found {
				if active, ok := v.Value().(bool); ok {
					m.setActive(active)
				}
				return
			}
		}
		if invalidated, ok := sig.Body[2].([]string); ok {
			for _, name := range invalidated {
				if name == "Active" {
					if err := m.refresh(); err != nil {
						m.logger.Warn("Unable to read session state", "err", err)
					}
				}
			}
		}
	}
}

func (m *Monitor) refresh() error {
	if m.conn == nil {
		return ErrUnknown
	}
	v, err := m.conn.Object(login1Dest, m.sessionPath).GetProperty(sessionInterface + ".Active")
	if err != nil {
		m.mu.Lock()
		m.known = false
		m.mu.Unlock()
		return fmt.Errorf("Error reading session Active property: %w", err)
	}
	active, ok := v.Value().(bool)
	if !ok {
		return fmt.Errorf("Error reading session Active property: unexpected type %T", v.Value())
	}
	m.setActive(active)
	return nil
}

func (m *Monitor) setActive(active bool) {
	m.mu.Lock()
	changed := !m.known || m.active != active
	wasKnown := m.known
	m.active = active
	m.known = true
	m.mu.Unlock()

	if !changed {
		return
	}
	m.logger.Info("Session active changed", "active", active)
	// the first read is just learning the state
	if wasKnown {
		m.onActiveChanged(active)
	}
}
