package reax

// Not returns a derived Value[bool] that mirrors the negation of v,
// attaching/detaching lazily exactly like any other MapValue.
func Not(v *Value[bool]) *Value[bool] {
	return MapValue(v, func(b bool) bool { return !b })
}

// And returns a derived Value[bool] that is true iff every value in vs
// is currently true (vacuously true for an empty vs). It attaches to
// each upstream lazily, on its own first subscriber, and detaches from
// all of them on its last.
func And(vs ...*Value[bool]) *Value[bool] {
	return combineBool(vs, func(cur []bool) bool {
		for _, b := range cur {
			if !b {
				return false
			}
		}
		return true
	})
}

// Or returns a derived Value[bool] that is true iff at least one value
// in vs is currently true (false for an empty vs). Same lazy
// attach/detach lifecycle as And.
func Or(vs ...*Value[bool]) *Value[bool] {
	return combineBool(vs, func(cur []bool) bool {
		for _, b := range cur {
			if b {
				return true
			}
		}
		return false
	})
}

func combineBool(vs []*Value[bool], combine func([]bool) bool) *Value[bool] {
	read := func() bool {
		cur := make([]bool, len(vs))
		for i, v := range vs {
			cur[i] = v.Get()
		}
		return combine(cur)
	}

	out := NewValue(read())
	out.getter = read

	var conns []*Connection
	out.r.SetLifecycleHooks(
		func() {
			for _, v := range vs {
				if conn, err := v.Connect(func(bool, *bool) { out.Update(read()) }); err == nil {
					conns = append(conns, conn)
				}
			}
		},
		func() {
			for _, c := range conns {
				c.Close()
			}
			conns = nil
		},
	)
	return out
}

// AsValue converts a Signal into a Value[T]: it starts out holding
// initial and then tracks whatever the signal last emitted, attaching
// to it lazily (on its own first subscriber) and detaching on its
// last, the mirror image of Value.Changes.
func AsValue[T any](s *Signal[T], initial T) *Value[T] {
	out := NewValue(initial)
	var conn *Connection
	out.r.SetLifecycleHooks(
		func() {
			c, _ := s.Connect(func(v T) { out.Update(v) })
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

// Toggler is a mutable boolean cell whose Toggle method flips it.
type Toggler struct {
	value *Value[bool]
}

// NewToggler creates a toggler starting at initial.
func NewToggler(initial bool) *Toggler {
	return &Toggler{value: NewValue(initial)}
}

// Value returns the underlying observable boolean cell.
func (t *Toggler) Value() *Value[bool] { return t.value }

// Toggle flips the current value and returns the new one.
func (t *Toggler) Toggle() bool {
	next := !t.value.Get()
	t.value.Update(next)
	return next
}
