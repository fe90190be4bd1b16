//go:build wasm

package internal

// WeakHoldingSupported is false on this build: the weak package is
// unavailable, so weak pointers degrade to ordinary strong retention,
// observably (the per-key view caches of RMap and RSet never shrink on
// their own).
const WeakHoldingSupported = false

type weakPointer[P any] struct {
	ptr *P
}

func newWeakPointer[P any](ptr *P) WeakPointer[*P] {
	return &weakPointer[P]{ptr: ptr}
}

func (w *weakPointer[P]) Value() (*P, bool) {
	return w.ptr, w.ptr != nil
}
