package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

// RMap is an observable key-value mapping with unique keys.
type RMap[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
	r     *internal.Reactor[func(MapChange[K, V])]

	sizeOnce sync.Once
	size     *Value[int]

	viewsMu       sync.Mutex
	containsViews map[K]internal.WeakPointer[*Value[bool]]
	valueViews    map[K]internal.WeakPointer[*Value[optionValue[V]]]
}

// optionValue stands in for an Option<V>: Present carries whether the
// key was in the map at the time the view was computed.
type optionValue[V any] struct {
	Value   V
	Present bool
}

// NewRMap creates a map seeded with the given entries, if any.
func NewRMap[K comparable, V any](initial map[K]V) *RMap[K, V] {
	items := make(map[K]V, len(initial))
	for k, v := range initial {
		items[k] = v
	}
	return &RMap[K, V]{
		items:         items,
		r:             internal.New[func(MapChange[K, V])](),
		containsViews: map[K]internal.WeakPointer[*Value[bool]]{},
		valueViews:    map[K]internal.WeakPointer[*Value[optionValue[V]]]{},
	}
}

func (m *RMap[K, V]) HasConnections() bool { return m.r.HasConnections() }

func (m *RMap[K, V]) Connect(listener func(MapChange[K, V])) (*Connection, error) {
	return m.ConnectAt(0, listener)
}

func (m *RMap[K, V]) ConnectAt(priority int, listener func(MapChange[K, V])) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("RMap.Connect")
	}
	return wrapConnection(m.r.Connect(listener, priority)), nil
}

// ConnectNotify connects listener and immediately replays every
// current entry as a Put change.
func (m *RMap[K, V]) ConnectNotify(listener func(MapChange[K, V])) (*Connection, error) {
	conn, err := m.Connect(listener)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	snapshot := make(map[K]V, len(m.items))
	for k, v := range m.items {
		snapshot[k] = v
	}
	m.mu.Unlock()
	for k, v := range snapshot {
		listener(MapChange[K, V]{Kind: Put, Key: k, Value: v})
	}
	return conn, nil
}

func (m *RMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *RMap[K, V]) Get(k K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[k]
	return v, ok
}

func (m *RMap[K, V]) GetOrElse(k K, fallback V) V {
	if v, ok := m.Get(k); ok {
		return v
	}
	return fallback
}

// Put stores v under k, emitting a Put change iff v differs from
// whatever was previously stored (absent counts as different). Old is
// nil when the key was absent, set otherwise. Returns the prior
// value, if any.
func (m *RMap[K, V]) Put(k K, v V) (V, error) {
	return m.put(k, v, false)
}

// PutForce stores v under k and always emits.
func (m *RMap[K, V]) PutForce(k K, v V) (V, error) {
	return m.put(k, v, true)
}

func (m *RMap[K, V]) put(k K, v V, force bool) (V, error) {
	m.mu.Lock()
	old, existed := m.items[k]
	changed := force || !existed || !structurallyEqual(old, v)
	if changed {
		m.items[k] = v
	}
	m.mu.Unlock()

	if !changed {
		return old, nil
	}

	var oldPtr *V
	if existed {
		oldCopy := old
		oldPtr = &oldCopy
	}
	err := m.emit(MapChange[K, V]{Kind: Put, Key: k, Value: v, Old: oldPtr})
	m.refreshViews(k, !existed)
	return old, err
}

// Remove deletes k, emitting Removed(k, old) iff it was present.
// Returns the removed value, if any.
func (m *RMap[K, V]) Remove(k K) (V, error) {
	m.mu.Lock()
	old, existed := m.items[k]
	if existed {
		delete(m.items, k)
	}
	m.mu.Unlock()

	if !existed {
		var zero V
		return zero, nil
	}

	err := m.emit(MapChange[K, V]{Kind: Removed, Key: k, Value: old, Old: &old})
	m.refreshViews(k, false)
	return old, err
}

// RemoveForce always emits Removed(k, old_or_zero), present or not.
func (m *RMap[K, V]) RemoveForce(k K) (V, error) {
	m.mu.Lock()
	old, existed := m.items[k]
	if existed {
		delete(m.items, k)
	}
	m.mu.Unlock()

	var oldPtr *V
	if existed {
		oldCopy := old
		oldPtr = &oldCopy
	}
	err := m.emit(MapChange[K, V]{Kind: Removed, Key: k, Value: old, Old: oldPtr})
	m.refreshViews(k, false)
	return old, err
}

// Clear empties the map, emitting one Removed per entry (snapshot
// then clear, so the backing store is empty by the time listeners
// run).
func (m *RMap[K, V]) Clear() error {
	m.mu.Lock()
	snapshot := make(map[K]V, len(m.items))
	for k, v := range m.items {
		snapshot[k] = v
	}
	m.items = make(map[K]V)
	m.mu.Unlock()

	var failures []error
	for k, v := range snapshot {
		old := v
		if err := m.emit(MapChange[K, V]{Kind: Removed, Key: k, Value: old, Old: &old}); err != nil {
			failures = append(failures, err)
		}
		m.refreshViews(k, false)
	}
	return internal.AsFailure(failures)
}

func (m *RMap[K, V]) emit(c MapChange[K, V]) error {
	err := m.r.Notify(func(f func(MapChange[K, V])) { f(c) })
	m.updateSize()
	return err
}

func (m *RMap[K, V]) updateSize() {
	if m.size != nil {
		m.size.Update(m.Len())
	}
}

// SizeView returns a Value[int] tracking this map's entry count.
func (m *RMap[K, V]) SizeView() *Value[int] {
	m.sizeOnce.Do(func() { m.size = NewValue(m.Len()) })
	return m.size
}

// ContainsKeyView returns a derived Value[bool] for key k, updated on
// every Put that transitions absent-to-present for k, and on every
// Removed for k. The view is cached only weakly: if the caller drops
// every strong reference to a previously returned view, this map
// won't keep it (or its Reactor's listener list) alive forever for a
// key nobody queries anymore.
func (m *RMap[K, V]) ContainsKeyView(k K) *Value[bool] {
	m.viewsMu.Lock()
	defer m.viewsMu.Unlock()
	if wp, ok := m.containsViews[k]; ok {
		if v, alive := wp.Value(); alive {
			return v
		}
	}
	_, present := m.Get(k)
	v := NewValue(present)
	m.containsViews[k] = internal.NewWeakPointer(v)
	return v
}

// GetView returns a derived Value[Option[V]] for key k, updated on
// every Put/Removed for k, with the same weak-cache lifetime as
// ContainsKeyView.
func (m *RMap[K, V]) GetView(k K) *Value[optionValue[V]] {
	m.viewsMu.Lock()
	defer m.viewsMu.Unlock()
	if wp, ok := m.valueViews[k]; ok {
		if v, alive := wp.Value(); alive {
			return v
		}
	}
	cur, present := m.Get(k)
	v := NewValue(optionValue[V]{Value: cur, Present: present})
	m.valueViews[k] = internal.NewWeakPointer(v)
	return v
}

// refreshViews pushes the current (key-scoped) state into any
// still-live cached views for k, dropping any weak entry whose target
// has already been reclaimed. cameFromAbsent marks the Put case where
// a previously-absent key gained a value, the only Put case
// ContainsKeyView needs to react to.
func (m *RMap[K, V]) refreshViews(k K, cameFromAbsent bool) {
	m.viewsMu.Lock()
	containsWP, hasContains := m.containsViews[k]
	valueWP, hasValue := m.valueViews[k]
	m.viewsMu.Unlock()

	cur, present := m.Get(k)

	if hasContains {
		if containsView, alive := containsWP.Value(); alive {
			if cameFromAbsent || !present {
				containsView.Update(present)
			}
		} else {
			m.viewsMu.Lock()
			delete(m.containsViews, k)
			m.viewsMu.Unlock()
		}
	}
	if hasValue {
		if valueView, alive := valueWP.Value(); alive {
			valueView.Update(optionValue[V]{Value: cur, Present: present})
		} else {
			m.viewsMu.Lock()
			delete(m.valueViews, k)
			m.viewsMu.Unlock()
		}
	}
}
