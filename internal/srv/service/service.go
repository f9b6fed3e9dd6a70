package service

import (
	"sync"

	"github.com/jypelle/inkpanel/internal/srv/model"
)

// Service is a domain collaborator: it caches a snapshot, accepts commands and
// calls back whenever the snapshot or its connection state changes.
type Service interface {
	Name() string
	Connection() model.Connection
	OnUpdate(fn func())
	Start() error
	Stop()
}

// notifier holds the connection state and update callbacks shared by all
// services.
type notifier struct {
	lock       sync.RWMutex
	connection model.Connection
	callbacks  []func()
}

func (n *notifier) Connection() model.Connection {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.connection
}

func (n *notifier) OnUpdate(fn func()) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.callbacks = append(n.callbacks, fn)
}

func (n *notifier) setConnection(c model.Connection) {
	n.lock.Lock()
	changed := n.connection != c
	n.connection = c
	n.lock.Unlock()
	if changed {
		n.notify()
	}
}

// notify runs the callbacks outside of any service lock.
func (n *notifier) notify() {
	n.lock.RLock()
	callbacks := make([]func(), len(n.callbacks))
	copy(callbacks, n.callbacks)
	n.lock.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}
