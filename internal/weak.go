package internal

// WeakPointer is a capability for holding a pointer without keeping it
// alive, used by the reactive collections to cache per-key derived
// views (RMap.get_view, RMap.contains_key_view, RSet.contains_view)
// without pinning one Value/Reactor pair in memory forever for every
// key ever queried.
//
// Weak holding is not guaranteed on every host: a closure passed to
// Connect has no address Go exposes for a weak pointer to track (there
// is no addressable handle for a func value's captured environment),
// so Connection.HoldWeakly documents a degradation to strong retention
// for that case — see connection.go. WeakPointer itself is only ever
// instantiated over genuine pointer types, where real weak tracking is
// both correct and useful.
type WeakPointer[P any] interface {
	// Value returns the pointee and true if it is still reachable
	// through some other strong reference, or the zero value and
	// false if it has been reclaimed. Where weak holding is not
	// supported, a non-nil pointee is never reclaimed and is always
	// returned with true.
	Value() (P, bool)
}

// NewWeakPointer wraps ptr in the platform's best available weak
// reference capability. See weak_default.go and weak_fallback.go.
func NewWeakPointer[P any](ptr *P) WeakPointer[*P] {
	return newWeakPointer(ptr)
}
