package astisense

import (
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

type MessageHandler func(m *Message) error

type dispatcherHandler struct {
	c DispatchConditions
	h MessageHandler
}

type Dispatcher struct {
	hs []dispatcherHandler
	m  *sync.Mutex // Locks hs
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{m: &sync.Mutex{}}
}

type DispatchConditions struct {
	Name  *string
	Names map[string]bool
}

func (c DispatchConditions) match(m *Message) bool {
	// Check name
	if c.Name != nil && *c.Name != m.Name {
		return false
	}

	// Check names
	if c.Names != nil && !c.Names[m.Name] {
		return false
	}
	return true
}

// Dispatch calls matching handlers in the order they were added. Handlers
// run outside the lock so that they can dispatch messages themselves.
func (d *Dispatcher) Dispatch(m *Message) {
	// Copy handlers
	d.m.Lock()
	hs := make([]dispatcherHandler, len(d.hs))
	copy(hs, d.hs)
	d.m.Unlock()

	// Loop through handlers
	for _, h := range hs {
		// No match
		if !h.c.match(m) {
			continue
		}

		// Handle
		if err := h.h(m); err != nil {
			astilog.Error(errors.Wrapf(err, "astisense: handling message %s failed", m.Name))
		}
	}
}

func (d *Dispatcher) On(c DispatchConditions, h MessageHandler) {
	d.m.Lock()
	defer d.m.Unlock()
	d.hs = append(d.hs, dispatcherHandler{
		c: c,
		h: h,
	})
}
