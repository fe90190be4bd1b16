package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

// Value is a reactor plus a stored current value. Inside a listener,
// Get returns the new value; the old value, if any, is passed as the
// listener's second argument.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	getter  func() T // non-nil for derived values whose Get recomputes live (Map, FlatMap).
	r       *internal.Reactor[func(T, *T)]
}

// NewValue creates a value cell holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, r: internal.New[func(T, *T)]()}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	if v.getter != nil {
		return v.getter()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *Value[T]) HasConnections() bool { return v.r.HasConnections() }

// Connect registers listener at priority 0.
func (v *Value[T]) Connect(listener func(newValue T, oldValue *T)) (*Connection, error) {
	return v.ConnectAt(0, listener)
}

// ConnectAt registers listener at the given priority.
func (v *Value[T]) ConnectAt(priority int, listener func(newValue T, oldValue *T)) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("Value.Connect")
	}
	reg := v.r.Connect(listener, priority)
	return wrapConnection(reg), nil
}

// ConnectNotify connects listener and then immediately invokes it once
// with (current, nil) — there is no "old" value on this first call. If
// that initial invocation panics, the just-added connection is closed
// before the panic propagates.
func (v *Value[T]) ConnectNotify(listener func(newValue T, oldValue *T)) (*Connection, error) {
	conn, err := v.Connect(listener)
	if err != nil {
		return nil, err
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				conn.Close()
				panic(rec)
			}
		}()
		listener(v.Get(), nil)
	}()

	return conn, nil
}

// Update stores newValue and notifies listeners iff it differs from
// the current value under structural equality. Returns the previous
// value.
func (v *Value[T]) Update(newValue T) T { return v.update(newValue, false) }

// UpdateForce stores newValue and notifies unconditionally. Returns
// the previous value.
func (v *Value[T]) UpdateForce(newValue T) T { return v.update(newValue, true) }

func (v *Value[T]) update(newValue T, force bool) T {
	v.mu.Lock()
	old := v.current
	changed := force || !structurallyEqual(old, newValue)
	if changed {
		v.current = newValue
	}
	v.mu.Unlock()

	if !changed {
		return old
	}

	oldCopy := old
	v.r.Notify(func(l func(T, *T)) { l(newValue, &oldCopy) })
	return old
}

// MapValue returns a derived value whose Get applies f to v's current
// value on every call (no memoization required); while it has
// its own subscribers, it also forwards v's changes so its own
// listeners see up-to-date (new, old) pairs.
func MapValue[T, R any](v *Value[T], f func(T) R) *Value[R] {
	out := NewValue[R](f(v.Get()))
	out.getter = func() R { return f(v.Get()) }

	var upstreamConn *Connection
	out.r.SetLifecycleHooks(
		func() {
			// Resync the stored value, which may be stale from changes
			// made while nobody was subscribed.
			fresh := f(v.Get())
			out.mu.Lock()
			out.current = fresh
			out.mu.Unlock()
			c, _ := v.Connect(func(newV T, _ *T) { out.Update(f(newV)) })
			upstreamConn = c
		},
		func() {
			if upstreamConn != nil {
				upstreamConn.Close()
				upstreamConn = nil
			}
		},
	)
	return out
}

// FlatMapValue subscribes to v to learn which inner value to follow:
// on every change of v, it detaches from the old inner and attaches to
// the new one, forwarding the inner's changes. Get always reflects the
// currently selected inner's current value, live, with no
// subscription required.
func FlatMapValue[T, R any](v *Value[T], f func(T) *Value[R]) *Value[R] {
	out := NewValue[R](f(v.Get()).Get())
	out.getter = func() R { return f(v.Get()).Get() }

	var upstreamConn, innerConn *Connection
	attachInner := func(inner *Value[R]) {
		if innerConn != nil {
			innerConn.Close()
		}
		c, _ := inner.Connect(func(newV R, _ *R) { out.Update(newV) })
		innerConn = c
	}

	out.r.SetLifecycleHooks(
		func() {
			attachInner(f(v.Get()))
			c, _ := v.Connect(func(newT T, _ *T) {
				inner := f(newT)
				attachInner(inner)
				out.Update(inner.Get())
			})
			upstreamConn = c
		},
		func() {
			if innerConn != nil {
				innerConn.Close()
				innerConn = nil
			}
			if upstreamConn != nil {
				upstreamConn.Close()
				upstreamConn = nil
			}
		},
	)
	return out
}

// Changes downgrades v to event-stream semantics: a Signal that emits
// the new value on every Update/UpdateForce that actually notifies.
func (v *Value[T]) Changes() *Signal[T] {
	out := NewSignal[T]()
	var conn *Connection
	out.r.SetLifecycleHooks(
		func() {
			c, _ := v.Connect(func(newV T, _ *T) { out.Emit(newV) })
			conn = c
		},
		func() {
			if conn != nil {
				conn.Close()
				conn = nil
			}
		},
	)
	return out
}

// When returns an already-successful future if the current value
// satisfies pred, or a future completed by the next change that
// satisfies pred.
func (v *Value[T]) When(pred func(T) bool) *Future[T] {
	if cur := v.Get(); pred(cur) {
		return SucceededFuture(cur)
	}

	p := NewPromise[T]()
	var conn *Connection
	c, err := v.Connect(func(newV T, _ *T) {
		if pred(newV) {
			p.Succeed(newV)
			if conn != nil {
				conn.Close()
			}
		}
	})
	if err != nil {
		p.Fail(err)
		return p.Future()
	}
	conn = c
	return p.Future()
}
