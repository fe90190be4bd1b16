// Package internal implements the dispatch and connection machinery
// that every reax entity (Signal, Value, Future, the reactive
// collections) is built on: a reactor owning a priority-sorted list of
// listener registrations, and the re-entrant notify algorithm that
// keeps adds, removes, and nested emissions correct during dispatch.
package internal

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/petermattis/goid"
)

type dispatchState int

const (
	idle dispatchState = iota
	dispatching
)

// Registration is a single listener's place in a Reactor's list. It is
// exclusively owned by its Reactor; weak holding (see weak.go) refers
// only to the listener payload a caller's Connection wraps around it,
// never to this node.
type Registration[L any] struct {
	id       string
	listener L
	priority int
	seq      int64
	once     bool
	closed   bool
	weakHold bool // requested via HoldWeakly; see resolve().

	reactor *Reactor[L]
	next    *Registration[L]
}

// ID is a stable identifier for this registration, used to correlate a
// captured ListenerFailure back to its Connect call site.
func (reg *Registration[L]) ID() string { return reg.id }

// Reactor owns an ordered registration list, a FIFO of operations
// deferred from an active dispatch frame, and an idle/dispatching
// state bit.
type Reactor[L any] struct {
	mu          sync.Mutex
	state       dispatchState
	head        *Registration[L]
	seq         int64
	deferred    *queue.Queue
	dispatchGID int64

	liveCount int
	onAttach  func() // fires on the 0-to-1 live-registration transition
	onDetach  func() // fires on the 1-to-0 live-registration transition
}

// SetLifecycleHooks installs the zero-to-one / one-to-zero callbacks a
// derived reactor (Signal.Map, FlatMapValue, ...) uses to lazily
// attach to and detach from its upstream.
func (r *Reactor[L]) SetLifecycleHooks(onAttach, onDetach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAttach = onAttach
	r.onDetach = onDetach
}

// New creates an empty reactor.
func New[L any]() *Reactor[L] {
	return &Reactor[L]{deferred: queue.New()}
}

// Connect registers listener at the given priority (higher runs
// first; ties break by insertion order) and returns its Registration.
// Nil listeners are not checked here, since nilness of L can't be
// checked generically; the entities' ConnectAt methods reject a nil
// listener before reaching here.
func (r *Reactor[L]) Connect(listener L, priority int) *Registration[L] {
	reg := &Registration[L]{
		id:       uuid.NewString(),
		listener: listener,
		priority: priority,
		reactor:  r,
	}
	r.add(reg)
	return reg
}

func (r *Reactor[L]) add(reg *Registration[L]) {
	r.mu.Lock()
	if r.state == dispatching {
		r.assertSameGoroutineLocked("connect")
		r.deferred.Add(func() []error { r.insertSorted(reg); return nil })
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.insertSorted(reg)
}

func (r *Reactor[L]) insertSorted(reg *Registration[L]) {
	r.mu.Lock()
	r.head = pruneClosed(r.head)
	reg.seq = r.seq
	r.seq++
	r.head = insertNode(r.head, reg)
	r.liveCount++
	becameLive := r.liveCount == 1
	onAttach := r.onAttach
	r.mu.Unlock()

	if becameLive && onAttach != nil {
		onAttach()
	}
}

// Close marks reg dead. It always takes effect immediately, even mid
// dispatch, so an in-flight walk skips it as soon as it checks
// liveness: removes are visible to the current frame, unlike adds.
func (r *Reactor[L]) Close(reg *Registration[L]) {
	r.mu.Lock()
	if r.state == dispatching {
		r.assertSameGoroutineLocked("close")
	}
	wasLive := !reg.closed
	reg.closed = true
	becameEmpty := false
	if wasLive {
		r.liveCount--
		becameEmpty = r.liveCount == 0
	}
	onDetach := r.onDetach
	r.mu.Unlock()

	if wasLive && becameEmpty && onDetach != nil {
		onDetach()
	}
}

func (reg *Registration[L]) IsClosed() bool {
	reg.reactor.mu.Lock()
	defer reg.reactor.mu.Unlock()
	return reg.closed
}

// Close is a convenience wrapper around Reactor.Close for callers that
// only hold the Registration.
func (reg *Registration[L]) Close() { reg.reactor.Close(reg) }

// MarkOnce flags reg as one-shot; idempotent.
func (reg *Registration[L]) MarkOnce() {
	reg.reactor.mu.Lock()
	defer reg.reactor.mu.Unlock()
	reg.once = true
}

// SetPriority implements Connection.AtPrio: remove-then-reinsert at
// the new priority. Deferred while a dispatch frame is active so the
// frame's own walk is unaffected.
func (reg *Registration[L]) SetPriority(priority int) error {
	r := reg.reactor
	r.mu.Lock()
	if reg.closed {
		r.mu.Unlock()
		return NewIllegalState("AtPrio", "connection already closed")
	}
	if r.state == dispatching {
		r.assertSameGoroutineLocked("at_prio")
		r.deferred.Add(func() []error { r.reinsert(reg, priority); return nil })
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	r.reinsert(reg, priority)
	return nil
}

func (r *Reactor[L]) reinsert(reg *Registration[L], priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = unlink(r.head, reg)
	reg.priority = priority
	reg.seq = r.seq
	r.seq++
	r.head = insertNode(r.head, reg)
}

// HoldWeakly implements Connection.HoldWeakly. A Go closure has no
// address the runtime's weak package can track independently of this
// registration's own strong field (see weak.go's doc comment), so this
// degrades to a documented, permitted fallback that keeps the listener
// strongly held. The request is recorded on the registration, but
// retention and dispatch are unaffected.
func (reg *Registration[L]) HoldWeakly() error {
	r := reg.reactor
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg.closed {
		return NewIllegalState("HoldWeakly", "connection already closed")
	}
	reg.weakHold = true
	return nil
}

// resolve returns the listener to invoke, or false if it is gone.
// Strong registrations (and, per the doc comment above, every
// registration this package ever creates) always resolve.
func (reg *Registration[L]) resolve() (L, bool) {
	return reg.listener, true
}

// HasConnections reports whether any live registration remains.
func (r *Reactor[L]) HasConnections() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for reg := r.head; reg != nil; reg = reg.next {
		if !reg.closed {
			return true
		}
	}
	return false
}

// ClearConnections drops every registration. Forbidden while a
// dispatch frame is active or deferred operations remain pending.
func (r *Reactor[L]) ClearConnections() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == dispatching {
		return NewIllegalState("ClearConnections", "cannot clear connections while a dispatch frame is active")
	}
	if r.deferred.Length() > 0 {
		return NewIllegalState("ClearConnections", "cannot clear connections while deferred operations are pending")
	}
	r.head = nil
	return nil
}

// Notify runs invoke against every live listener, in priority order.
// If a dispatch frame is already active on this reactor, the call is
// deferred to the same FIFO that add/reinsert use, so it runs after
// the current frame finishes instead of interleaving with it.
func (r *Reactor[L]) Notify(invoke func(L)) error {
	r.mu.Lock()
	if r.state == dispatching {
		r.assertSameGoroutineLocked("notify")
		r.deferred.Add(func() []error { return r.runFrame(invoke) })
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return AsFailure(r.runFrame(invoke))
}

func (r *Reactor[L]) runFrame(invoke func(L)) []error {
	r.mu.Lock()
	r.state = dispatching
	r.dispatchGID = goid.Get()
	snapshot := r.head
	r.mu.Unlock()

	failures := r.walk(snapshot, invoke)

	r.mu.Lock()
	r.state = idle
	r.mu.Unlock()

	return append(failures, r.drainDeferred()...)
}

func (r *Reactor[L]) walk(head *Registration[L], invoke func(L)) []error {
	var failures []error
	for reg := head; reg != nil; reg = reg.next {
		r.mu.Lock()
		closed := reg.closed
		r.mu.Unlock()
		if closed {
			continue
		}

		listener, ok := reg.resolve()
		if !ok {
			r.Close(reg)
			continue
		}

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					failures = append(failures, &ListenerFailure{ConnID: reg.id, Cause: rec})
				}
			}()
			invoke(listener)
		}()

		if reg.once {
			r.Close(reg)
		}
	}
	return failures
}

func (r *Reactor[L]) drainDeferred() []error {
	var failures []error
	for {
		r.mu.Lock()
		if r.deferred.Length() == 0 {
			r.mu.Unlock()
			break
		}
		op := r.deferred.Remove().(func() []error)
		r.mu.Unlock()
		failures = append(failures, op()...)
	}
	return failures
}

// assertSameGoroutineLocked catches one undefined-behaviour case: a
// reactor entered concurrently from a second goroutine while a
// dispatch frame is active on another, without the embedder
// serializing access. Callers must hold r.mu and must only call this
// when r.state == dispatching.
func (r *Reactor[L]) assertSameGoroutineLocked(op string) {
	if goid.Get() != r.dispatchGID {
		panic(fmt.Sprintf(
			"reax: %s invoked on a reactor from goroutine %d while a dispatch frame is active on goroutine %d; "+
				"the embedder must serialize access to a single reactor",
			op, goid.Get(), r.dispatchGID))
	}
}

func insertNode[L any](head, reg *Registration[L]) *Registration[L] {
	if head == nil || less(reg, head) {
		reg.next = head
		return reg
	}
	cur := head
	for cur.next != nil && !less(reg, cur.next) {
		cur = cur.next
	}
	reg.next = cur.next
	cur.next = reg
	return head
}

func less[L any](a, b *Registration[L]) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}

func unlink[L any](head, target *Registration[L]) *Registration[L] {
	if head == target {
		return head.next
	}
	for cur := head; cur != nil && cur.next != nil; cur = cur.next {
		if cur.next == target {
			cur.next = target.next
			return head
		}
	}
	return head
}

func pruneClosed[L any](head *Registration[L]) *Registration[L] {
	for head != nil && head.closed {
		head = head.next
	}
	for cur := head; cur != nil && cur.next != nil; {
		if cur.next.closed {
			cur.next = cur.next.next
		} else {
			cur = cur.next
		}
	}
	return head
}
