package reax

import "github.com/arborist-dev/reax/internal"

// connHandle adapts an internal.Registration[L], for whatever
// listener shape L an entity uses, to the non-generic handle
// interface Connection needs.
type connHandle[L any] struct {
	reg *internal.Registration[L]
}

func (h connHandle[L]) id() string { return h.reg.ID() }

func (h connHandle[L]) close() error {
	h.reg.Close()
	return nil
}

func (h connHandle[L]) markOnce() { h.reg.MarkOnce() }

func (h connHandle[L]) atPrio(priority int) error { return h.reg.SetPriority(priority) }

func (h connHandle[L]) holdWeakly() error { return h.reg.HoldWeakly() }

// wrapConnection builds the Connection an entity's Connect method
// returns from the Registration the underlying Reactor handed back.
func wrapConnection[L any](reg *internal.Registration[L]) *Connection {
	return newConnection(connHandle[L]{reg: reg})
}
