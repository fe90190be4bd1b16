package reax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Connection.HoldWeakly is a documented degradation to strong holding
// for closure-based listeners (see internal/weak.go): a closure has
// no address the runtime's weak package can track independently of
// its registration's own strong field. The scenario from the reactive
// collections' per-key view cache is where a genuine pointer payload
// is actually tracked weakly; see TestRMapViewCacheDoesNotPinMemory.

func TestValueUpdateNotifiesOnlyOnChange(t *testing.T) {
	t.Run("update with an equal value notifies nobody", func(t *testing.T) {
		v := NewValue(10)
		var calls int
		v.Connect(func(int, *int) { calls++ })

		v.Update(10)
		assert.Equal(t, 0, calls)
	})

	t.Run("update_force with an equal value still notifies every listener", func(t *testing.T) {
		v := NewValue(10)
		var calls int
		v.Connect(func(int, *int) { calls++ })

		v.UpdateForce(10)
		assert.Equal(t, 1, calls)
	})

	t.Run("update with a different value notifies and passes the old value", func(t *testing.T) {
		v := NewValue(10)
		var newSeen int
		var oldSeen int
		v.Connect(func(newV int, old *int) {
			newSeen = newV
			oldSeen = *old
		})

		v.Update(20)
		assert.Equal(t, 20, newSeen)
		assert.Equal(t, 10, oldSeen)
	})
}

func TestValueGetInsideListenerSeesNewValue(t *testing.T) {
	t.Run("get returns the new value from inside a listener", func(t *testing.T) {
		v := NewValue(1)
		var seen int
		v.Connect(func(int, *int) { seen = v.Get() })

		v.Update(2)
		assert.Equal(t, 2, seen)
	})
}

func TestValueConnectNotify(t *testing.T) {
	t.Run("fires immediately with (current, nil)", func(t *testing.T) {
		v := NewValue(5)
		var newSeen int
		var oldWasNil bool
		v.ConnectNotify(func(newV int, old *int) {
			newSeen = newV
			oldWasNil = old == nil
		})

		assert.Equal(t, 5, newSeen)
		assert.True(t, oldWasNil)
	})

	t.Run("closes the just-added connection if the initial call panics", func(t *testing.T) {
		v := NewValue(5)
		assert.Panics(t, func() {
			v.ConnectNotify(func(int, *int) { panic("boom") })
		})
		assert.False(t, v.HasConnections())
	})
}

func TestMapValue(t *testing.T) {
	t.Run("get recomputes live with no memoization", func(t *testing.T) {
		v := NewValue(21)
		doubled := MapValue(v, func(n int) int { return n * 2 })

		assert.Equal(t, 42, doubled.Get())
		v.Update(10)
		assert.Equal(t, 20, doubled.Get())
	})

	t.Run("forwards upstream changes while it has subscribers, lazily", func(t *testing.T) {
		v := NewValue(1)
		doubled := MapValue(v, func(n int) int { return n * 2 })
		assert.False(t, v.HasConnections())

		var got int
		conn, _ := doubled.Connect(func(n int, _ *int) { got = n })
		assert.True(t, v.HasConnections())

		v.Update(5)
		assert.Equal(t, 10, got)

		conn.Close()
		assert.False(t, v.HasConnections())
	})
}

func TestValueFlatMapToggle(t *testing.T) {
	t.Run("follows whichever inner value is currently selected", func(t *testing.T) {
		v1 := NewValue(42)
		v2 := NewValue(24)
		toggle := NewValue(true)

		fm := FlatMapValue(toggle, func(t bool) *Value[int] {
			if t {
				return v1
			}
			return v2
		})

		assert.Equal(t, 42, fm.Get())
		toggle.Update(false)
		assert.Equal(t, 24, fm.Get())
	})

	t.Run("a listener on fm sees the active inner change but not the inactive one", func(t *testing.T) {
		v1 := NewValue(42)
		v2 := NewValue(24)
		toggle := NewValue(true)
		fm := FlatMapValue(toggle, func(t bool) *Value[int] {
			if t {
				return v1
			}
			return v2
		})

		var log []int
		fm.Connect(func(n int, _ *int) { log = append(log, n) })

		v2.Update(99)
		assert.Nil(t, log)

		v1.Update(100)
		assert.Equal(t, []int{100}, log)
	})
}

func TestValueChanges(t *testing.T) {
	t.Run("downgrades to event-stream semantics", func(t *testing.T) {
		v := NewValue(1)
		changes := v.Changes()

		var log []int
		changes.Connect(func(n int) { log = append(log, n) })

		v.Update(2)
		v.Update(2)
		v.Update(3)

		assert.Equal(t, []int{2, 3}, log)
	})
}

func TestValueWhen(t *testing.T) {
	t.Run("returns an already-successful future if the predicate holds now", func(t *testing.T) {
		v := NewValue(10)
		fut := v.When(func(n int) bool { return n > 5 })

		assert.True(t, fut.IsCompleteNow())
		result, _ := fut.Result()
		assert.Equal(t, 10, result.Get())
	})

	t.Run("completes on the next change that satisfies the predicate", func(t *testing.T) {
		v := NewValue(1)
		fut := v.When(func(n int) bool { return n > 5 })
		assert.False(t, fut.IsCompleteNow())

		v.Update(3)
		assert.False(t, fut.IsCompleteNow())

		v.Update(9)
		assert.True(t, fut.IsCompleteNow())
		result, _ := fut.Result()
		assert.Equal(t, 9, result.Get())

		v.Update(100)
		result2, _ := fut.Result()
		assert.Equal(t, 9, result2.Get())
	})
}

func TestValueHoldWeaklyDegradesToStrong(t *testing.T) {
	t.Run("a weakly-held closure listener keeps firing", func(t *testing.T) {
		v := NewValue(1)
		var calls int
		conn, _ := v.Connect(func(int, *int) { calls++ })
		assert.NoError(t, conn.HoldWeakly())

		v.Update(2)
		assert.Equal(t, 1, calls)
		assert.True(t, v.HasConnections())
	})
}
