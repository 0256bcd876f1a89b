//go:build !linux

package clockskew

type watcher struct{}

func (n *Notifier) Start() error {
	return ErrUnsupported
}

func (n *Notifier) Close() {}
