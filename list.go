package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

// RList is an observable, ordered sequence. Every mutation updates the
// backing slice first and notifies listeners with the resulting
// state, so a listener's Len/Get calls during dispatch already see
// the post-mutation shape.
type RList[E any] struct {
	mu    sync.Mutex
	items []E
	r     *internal.Reactor[func(Change[E])]

	sizeOnce sync.Once
	size     *Value[int]
}

// NewRList creates a list seeded with the given elements, if any.
func NewRList[E any](initial ...E) *RList[E] {
	return &RList[E]{
		items: append([]E{}, initial...),
		r:     internal.New[func(Change[E])](),
	}
}

func (l *RList[E]) HasConnections() bool { return l.r.HasConnections() }

func (l *RList[E]) Connect(listener func(Change[E])) (*Connection, error) {
	return l.ConnectAt(0, listener)
}

func (l *RList[E]) ConnectAt(priority int, listener func(Change[E])) (*Connection, error) {
	if listener == nil {
		return nil, internal.NewNullListener("RList.Connect")
	}
	return wrapConnection(l.r.Connect(listener, priority)), nil
}

// ConnectNotify connects listener and immediately replays every
// current element as an Added change, in index order.
func (l *RList[E]) ConnectNotify(listener func(Change[E])) (*Connection, error) {
	conn, err := l.Connect(listener)
	if err != nil {
		return nil, err
	}
	for i, v := range l.Snapshot() {
		listener(Change[E]{Kind: Added, Index: i, Value: v})
	}
	return conn, nil
}

func (l *RList[E]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *RList[E]) Get(i int) E {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[i]
}

// Snapshot returns a defensive copy of the current contents.
func (l *RList[E]) Snapshot() []E {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]E{}, l.items...)
}

// Add appends elem and emits Added(len-1, elem).
func (l *RList[E]) Add(elem E) error {
	l.mu.Lock()
	l.items = append(l.items, elem)
	idx := len(l.items) - 1
	l.mu.Unlock()
	return l.emit(Change[E]{Kind: Added, Index: idx, Value: elem})
}

// AddAt inserts elem at index i and emits Added(i, elem).
func (l *RList[E]) AddAt(i int, elem E) error {
	l.mu.Lock()
	l.items = append(l.items, elem)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = elem
	l.mu.Unlock()
	return l.emit(Change[E]{Kind: Added, Index: i, Value: elem})
}

// Set replaces the element at i and emits Updated(i, v, old). Returns
// the replaced value.
func (l *RList[E]) Set(i int, v E) (E, error) {
	l.mu.Lock()
	old := l.items[i]
	l.items[i] = v
	l.mu.Unlock()
	oldCopy := old
	return old, l.emit(Change[E]{Kind: Updated, Index: i, Value: v, Old: &oldCopy})
}

// Remove removes the element at index i and emits Removed(i, old).
func (l *RList[E]) Remove(i int) (E, error) {
	l.mu.Lock()
	old := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.mu.Unlock()
	return old, l.emit(Change[E]{Kind: Removed, Index: i, Value: old})
}

// RemoveValue finds the first index holding a value structurally
// equal to elem, removes it, emits Removed, and returns (index, err)
// with err the dispatch failure, if any; or returns (-1, nil) without
// emitting if nothing matched.
func (l *RList[E]) RemoveValue(elem E) (int, error) {
	l.mu.Lock()
	idx := -1
	for i, v := range l.items {
		if structurallyEqual(v, elem) {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return -1, nil
	}
	old := l.items[idx]
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.mu.Unlock()
	return idx, l.emit(Change[E]{Kind: Removed, Index: idx, Value: old})
}

// RemoveForce always emits Removed(idx_or_negative, elem), whether or
// not elem was actually present in the list.
func (l *RList[E]) RemoveForce(elem E) (int, error) {
	l.mu.Lock()
	idx := -1
	for i, v := range l.items {
		if structurallyEqual(v, elem) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		l.items = append(l.items[:idx], l.items[idx+1:]...)
	}
	l.mu.Unlock()
	return idx, l.emit(Change[E]{Kind: Removed, Index: idx, Value: elem})
}

// Clear empties the list, emitting one Removed per element that was
// present. The backing slice is already empty by the time the first
// event reaches a listener.
func (l *RList[E]) Clear() error {
	l.mu.Lock()
	snapshot := append([]E{}, l.items...)
	l.items = nil
	l.mu.Unlock()

	var failures []error
	for i, v := range snapshot {
		if err := l.emit(Change[E]{Kind: Removed, Index: i, Value: v}); err != nil {
			failures = append(failures, err)
		}
	}
	return internal.AsFailure(failures)
}

func (l *RList[E]) emit(c Change[E]) error {
	err := l.r.Notify(func(f func(Change[E])) { f(c) })
	l.updateSize()
	return err
}

func (l *RList[E]) updateSize() {
	if l.size != nil {
		l.size.Update(l.Len())
	}
}

// SizeView returns a Value[int] tracking this list's length, built
// lazily on first use.
func (l *RList[E]) SizeView() *Value[int] {
	l.sizeOnce.Do(func() { l.size = NewValue(l.Len()) })
	return l.size
}
