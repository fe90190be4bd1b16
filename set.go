package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

// RSet is an observable set of comparable elements.
type RSet[E comparable] struct {
	mu    sync.Mutex
	items map[E]struct{}
	r     *internal.Reactor[func(SetChange[E])]

	sizeOnce sync.Once
	size     *Value[int]

	viewsMu       sync.Mutex
	containsViews map[E]internal.WeakPointer[*Value[bool]]
}

// NewRSet creates a set seeded with the given elements, if any.
func NewRSet[E comparable](initial ...E) *RSet[E] {
	items := make(map[E]struct{}, len(initial))
	for _, e := range initial {
		items[e] = struct{}{}
	}
	return &RSet[E]{
		items:         items,
		r:             internal.New[func(SetChange[E])](),
		containsViews: map[E]internal.WeakPointer[*Value[bool]]{},
	}
}

func (s *RSet[E]) HasConnections() bool { return s.r.HasConnections() }

func (s *RSet[E]) Connect(listener func(SetChange[E])) (*Connection, error) {
	return s.ConnectAt(0, listener)
}

func (s *RSet[E]) ConnectAt(priority int, listener func(SetChange[E])) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("RSet.Connect")
	}
	return wrapConnection(s.r.Connect(listener, priority)), nil
}

// ConnectNotify connects listener and immediately replays every
// current member as an Added change.
func (s *RSet[E]) ConnectNotify(listener func(SetChange[E])) (*Connection, error) {
	conn, err := s.Connect(listener)
	if err != nil {
		return nil, err
	}
	for _, e := range s.Snapshot() {
		listener(SetChange[E]{Kind: Added, Value: e})
	}
	return conn, nil
}

func (s *RSet[E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *RSet[E]) Contains(e E) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[e]
	return ok
}

// Snapshot returns every current member, in no particular order.
func (s *RSet[E]) Snapshot() []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]E, 0, len(s.items))
	for e := range s.items {
		out = append(out, e)
	}
	return out
}

// Add inserts e, emitting Added(e) iff e was not already present.
func (s *RSet[E]) Add(e E) error { return s.add(e, false) }

// AddForce inserts e and always emits Added(e).
func (s *RSet[E]) AddForce(e E) error { return s.add(e, true) }

func (s *RSet[E]) add(e E, force bool) error {
	s.mu.Lock()
	_, existed := s.items[e]
	changed := force || !existed
	if changed {
		s.items[e] = struct{}{}
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	err := s.emit(SetChange[E]{Kind: Added, Value: e})
	s.refreshView(e)
	return err
}

// Remove deletes e, emitting Removed(e) iff e was present.
func (s *RSet[E]) Remove(e E) error { return s.remove(e, false) }

// RemoveForce deletes e and always emits Removed(e).
func (s *RSet[E]) RemoveForce(e E) error { return s.remove(e, true) }

func (s *RSet[E]) remove(e E, force bool) error {
	s.mu.Lock()
	_, existed := s.items[e]
	changed := force || existed
	if existed {
		delete(s.items, e)
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	err := s.emit(SetChange[E]{Kind: Removed, Value: e})
	s.refreshView(e)
	return err
}

// Clear empties the set, emitting one Removed per member that was
// present (snapshot then clear).
func (s *RSet[E]) Clear() error {
	s.mu.Lock()
	snapshot := make([]E, 0, len(s.items))
	for e := range s.items {
		snapshot = append(snapshot, e)
	}
	s.items = make(map[E]struct{})
	s.mu.Unlock()

	var failures []error
	for _, e := range snapshot {
		if err := s.emit(SetChange[E]{Kind: Removed, Value: e}); err != nil {
			failures = append(failures, err)
		}
		s.refreshView(e)
	}
	return internal.AsFailure(failures)
}

func (s *RSet[E]) emit(c SetChange[E]) error {
	err := s.r.Notify(func(f func(SetChange[E])) { f(c) })
	s.updateSize()
	return err
}

func (s *RSet[E]) updateSize() {
	if s.size != nil {
		s.size.Update(s.Len())
	}
}

// SizeView returns a Value[int] tracking this set's cardinality.
func (s *RSet[E]) SizeView() *Value[int] {
	s.sizeOnce.Do(func() { s.size = NewValue(s.Len()) })
	return s.size
}

// ContainsView returns a derived Value[bool] for element e, updated on
// every structural Add/Remove of e. Cached only weakly, like
// RMap.ContainsKeyView: an element nobody still holds a view for
// doesn't pin memory in this set forever.
func (s *RSet[E]) ContainsView(e E) *Value[bool] {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if wp, ok := s.containsViews[e]; ok {
		if v, alive := wp.Value(); alive {
			return v
		}
	}
	v := NewValue(s.Contains(e))
	s.containsViews[e] = internal.NewWeakPointer(v)
	return v
}

func (s *RSet[E]) refreshView(e E) {
	s.viewsMu.Lock()
	wp, ok := s.containsViews[e]
	s.viewsMu.Unlock()
	if !ok {
		return
	}
	if v, alive := wp.Value(); alive {
		v.Update(s.Contains(e))
		return
	}
	s.viewsMu.Lock()
	delete(s.containsViews, e)
	s.viewsMu.Unlock()
}
