package reax

import "github.com/arborist-dev/reax/internal"

// handle is implemented by a connHandle[L] for whatever listener
// shape L the originating entity used; Connection itself stays
// non-generic so every entity can hand one back from Connect.
type handle interface {
	id() string
	close() error
	markOnce()
	atPrio(priority int) error
	holdWeakly() error
}

// Connection is the token returned from every subscription. It is the
// sole handle for cancelling that subscription.
type Connection struct{ h handle }

func newConnection(h handle) *Connection { return &Connection{h: h} }

// Close cancels the subscription. Idempotent.
func (c *Connection) Close() error { return c.h.close() }

// Once marks the subscription as one-shot: it fires at most once more
// and then self-closes. Idempotent.
func (c *Connection) Once() *Connection {
	c.h.markOnce()
	return c
}

// AtPrio re-inserts this subscription's registration at a new
// priority. Fails with IllegalState if the connection is closed.
func (c *Connection) AtPrio(priority int) error { return c.h.atPrio(priority) }

// HoldWeakly records a request to hold this subscription's listener
// weakly. Listeners are Go closures, which the weak package cannot
// track, so the listener stays strongly held and keeps firing; see
// internal/weak.go. Idempotent. Fails with IllegalState if the
// connection is closed.
func (c *Connection) HoldWeakly() error { return c.h.holdWeakly() }

// ID returns the underlying registration's identifier, useful for
// correlating a ListenerFailure back to its Connect call site.
func (c *Connection) ID() string { return c.h.id() }

type joinedHandle struct{ children []handle }

func (j *joinedHandle) id() string {
	if len(j.children) == 0 {
		return ""
	}
	return j.children[0].id()
}

func (j *joinedHandle) close() error {
	var failures []error
	for _, h := range j.children {
		if err := h.close(); err != nil {
			failures = append(failures, err)
		}
	}
	return internal.AsFailure(failures)
}

func (j *joinedHandle) markOnce() {
	for _, h := range j.children {
		h.markOnce()
	}
}

func (j *joinedHandle) atPrio(priority int) error {
	var failures []error
	for _, h := range j.children {
		if err := h.atPrio(priority); err != nil {
			failures = append(failures, err)
		}
	}
	return internal.AsFailure(failures)
}

func (j *joinedHandle) holdWeakly() error {
	var failures []error
	for _, h := range j.children {
		if err := h.holdWeakly(); err != nil {
			failures = append(failures, err)
		}
	}
	return internal.AsFailure(failures)
}

// JoinConnections returns a single Connection that applies every
// operation (Close, Once, AtPrio, HoldWeakly) to each of conns in
// turn: closing the join closes all of them, marking it once marks
// all of them one-shot, and so on.
func JoinConnections(conns ...*Connection) *Connection {
	children := make([]handle, len(conns))
	for i, c := range conns {
		children[i] = c.h
	}
	return newConnection(&joinedHandle{children: children})
}
