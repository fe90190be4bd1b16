package reax

import "github.com/arborist-dev/reax/internal"

// Signal is an event stream: it carries no state between emissions,
// only a reactor that dispatches each Emit to its listeners.
type Signal[T any] struct {
	r *internal.Reactor[func(T)]
}

// NewSignal creates an empty signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{r: internal.New[func(T)]()}
}

// HasConnections reports whether any listener is currently connected.
func (s *Signal[T]) HasConnections() bool { return s.r.HasConnections() }

// Connect registers listener at priority 0.
func (s *Signal[T]) Connect(listener func(T)) (*Connection, error) {
	return s.ConnectAt(0, listener)
}

// ConnectAt registers listener at the given priority (higher runs
// first).
func (s *Signal[T]) ConnectAt(priority int, listener func(T)) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("Signal.Connect")
	}
	reg := s.r.Connect(listener, priority)
	return wrapConnection(reg), nil
}

// Emit synchronously dispatches value to every connected listener, in
// priority order.
func (s *Signal[T]) Emit(value T) error {
	return s.r.Notify(func(l func(T)) { l(value) })
}

// Map returns a derived signal that re-emits f(v) for every v this
// signal emits. The derived signal attaches to s lazily, on its own
// first subscriber, and detaches on its last.
func (s *Signal[T]) Map(f func(T) any) *Signal[any] {
	return mapSignal(s, f)
}

// MapSignal is the type-preserving sibling of Map, for callers that know
// the result type and don't want to lose it to `any`.
func MapSignal[T, R any](s *Signal[T], f func(T) R) *Signal[R] {
	return mapSignal(s, f)
}

func mapSignal[T, R any](s *Signal[T], f func(T) R) *Signal[R] {
	out := NewSignal[R]()
	attachLazy(out, s, func(v T) { out.Emit(f(v)) })
	return out
}

// Filter returns a derived signal that re-emits only the values of s
// for which p returns true. Lazily attaches/detaches like Map.
func Filter[T any](s *Signal[T], p func(T) bool) *Signal[T] {
	out := NewSignal[T]()
	attachLazy(out, s, func(v T) {
		if p(v) {
			out.Emit(v)
		}
	})
	return out
}

// Next returns a future completed with this signal's next emission,
// installed as a one-shot listener.
func (s *Signal[T]) Next() *Future[T] {
	p := NewPromise[T]()
	conn, err := s.Connect(func(v T) { p.Succeed(v) })
	if err != nil {
		p.Fail(err)
		return p.Future()
	}
	conn.Once()
	return p.Future()
}

// attachLazy wires out's lifecycle to upstream: upstream is connected
// only once out gains its first listener, and disconnected once out
// loses its last one.
func attachLazy[T, U any](out *Signal[U], upstream *Signal[T], onEmit func(T)) {
	var upstreamConn *Connection
	out.r.SetLifecycleHooks(
		func() {
			if conn, err := upstream.Connect(onEmit); err == nil {
				upstreamConn = conn
			}
		},
		func() {
			if upstreamConn != nil {
				upstreamConn.Close()
				upstreamConn = nil
			}
		},
	)
}

// UnitSignal is a Signal[struct{}] with an Emit that takes no value.
type UnitSignal struct {
	s *Signal[struct{}]
}

func NewUnitSignal() *UnitSignal { return &UnitSignal{s: NewSignal[struct{}]()} }

func (u *UnitSignal) HasConnections() bool { return u.s.HasConnections() }

func (u *UnitSignal) Connect(listener func()) (*Connection, error) {
	return u.ConnectAt(0, listener)
}

func (u *UnitSignal) ConnectAt(priority int, listener func()) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("UnitSignal.Connect")
	}
	return u.s.ConnectAt(priority, func(struct{}) { listener() })
}

func (u *UnitSignal) Emit() error { return u.s.Emit(struct{}{}) }
