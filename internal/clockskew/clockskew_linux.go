//go:build linux

package clockskew

import (
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// a timerfd armed far in the future with TFD_TIMER_CANCEL_ON_SET fails its read with
// ECANCELED whenever the realtime clock is set
type watcher struct {
	file *os.File
	fd   int
	done chan struct{}
}

func arm(fd int) error {
	its := unix.ItimerSpec{Value: unix.NsecToTimespec(math.MaxInt64)}
	return unix.TimerfdSettime(fd, unix.TFD_TIMER_ABSTIME|unix.TFD_TIMER_CANCEL_ON_SET, &its, nil)
}

// Start watches for clock changes until Close is called
func (n *Notifier) Start() error {
	fd, err := unix.TimerfdCreate(unix.CLOCK_REALTIME, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("Error creating timerfd: %w", err)
	}
	if err := arm(fd); err != nil {
		unix.Close(fd)
		return fmt.Errorf("Error arming timerfd: %w", err)
	}

	n.watch = watcher{file: os.NewFile(uintptr(fd), "timerfd"), fd: fd, done: make(chan struct{})}
	go n.run(n.watch)
	n.logger.Debug("Watching for clock changes")
	return nil
}

func (n *Notifier) run(w watcher) {
	defer close(w.done)
	buf := make([]byte, 8)
	for {
		_, err := w.file.Read(buf)
		switch {
		case errors.Is(err, unix.ECANCELED):
			n.logger.Info("System clock changed")
			if err := arm(w.fd); err != nil {
				n.logger.Error("Error re-arming timerfd", "err", err)
				return
			}
			n.onSkew()
		case errors.Is(err, os.ErrClosed):
			return
		case err != nil:
			n.logger.Error("Error reading timerfd", "err", err)
			return
		}
	}
}

func (n *Notifier) Close() {
	if n.watch.file == nil {
		return
	}
	n.watch.file.Close()
	<-n.watch.done
	n.watch = watcher{}
}
