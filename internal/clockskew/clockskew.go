// Package clockskew reports discontinuous changes of the wall clock, e.g. it being set by hand or by NTP
package clockskew

import (
	"errors"

	"github.com/charmbracelet/log"
)

// ErrUnsupported is returned by Start where the platform can't detect clock changes
var ErrUnsupported = errors.New("clock change detection isn't supported on this platform")

type Notifier struct {
	logger *log.Logger
	onSkew func()
	watch  watcher
}

func NewNotifier(logger *log.Logger, onSkew func()) *Notifier {
	return &Notifier{logger: logger, onSkew: onSkew}
}
