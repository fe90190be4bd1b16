//go:build !wasm

package internal

import "weak"

// WeakHoldingSupported reports whether this build can observe pointer
// reclamation. Tests that depend on GC reclaiming a weakly-held value
// should skip when this is false.
const WeakHoldingSupported = true

type weakPointer[P any] struct {
	p weak.Pointer[P]
}

func newWeakPointer[P any](ptr *P) WeakPointer[*P] {
	return &weakPointer[P]{p: weak.Make(ptr)}
}

func (w *weakPointer[P]) Value() (*P, bool) {
	p := w.p.Value()
	return p, p != nil
}
