// Package endpoints runs the listeners serving the daemon's HTTP API.
package endpoints

import (
	"errors"
	"fmt"
	"sync"

	"github.com/canonical/lxd/shared/logger"
)

// Endpoints owns the control socket and, when configured, the network listener.
type Endpoints struct {
	mu        sync.Mutex
	listeners map[Kind]Listener
	running   map[Kind]bool
}

// NewEndpoints groups the given listeners. A later listener replaces an earlier one of the same kind.
func NewEndpoints(listeners ...Listener) *Endpoints {
	e := &Endpoints{
		listeners: make(map[Kind]Listener, len(listeners)),
		running:   make(map[Kind]bool, len(listeners)),
	}

	for _, l := range listeners {
		e.listeners[l.Kind()] = l
	}

	return e
}

// Up binds every listener, control socket first, and starts serving on each. If one cannot bind, the ones
// already started are closed again.
func (e *Endpoints) Up() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, kind := range kinds {
		l, ok := e.listeners[kind]
		if !ok {
			continue
		}

		err := l.Listen()
		if err != nil {
			_ = e.closeAll()
			return fmt.Errorf("Failed to start %s: %w", kind, err)
		}

		e.running[kind] = true
		l.Serve()

		logger.Debug("API listener started", logger.Ctx{"kind": kind.String(), "address": l.Address()})
	}

	return nil
}

// Stop closes the listener of the given kind. Stopping a listener that is not running does nothing.
func (e *Endpoints) Stop(kind Kind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running[kind] {
		return nil
	}

	delete(e.running, kind)

	return e.listeners[kind].Close()
}

// Down closes every running listener.
func (e *Endpoints) Down() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closeAll()
}

func (e *Endpoints) closeAll() error {
	var errs []error
	for _, kind := range kinds {
		if !e.running[kind] {
			continue
		}

		delete(e.running, kind)

		err := e.listeners[kind].Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("Failed to close %s: %w", kind, err))
		}
	}

	return errors.Join(errs...)
}

// Address returns where the listener of the given kind accepts connections, or an empty string if it is
// not running.
func (e *Endpoints) Address(kind Kind) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running[kind] {
		return ""
	}

	return e.listeners[kind].Address()
}

// Running returns the kinds of the listeners currently serving, in start order.
func (e *Endpoints) Running() []Kind {
	e.mu.Lock()
	defer e.mu.Unlock()

	running := make([]Kind, 0, len(e.running))
	for _, kind := range kinds {
		if e.running[kind] {
			running = append(running, kind)
		}
	}

	return running
}
