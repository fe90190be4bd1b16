package reax

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborist-dev/reax/internal"
)

func TestRSetAdd(t *testing.T) {
	t.Run("add emits Added(e) iff e was not already present", func(t *testing.T) {
		s := NewRSet[string]()
		var log []SetChange[string]
		s.Connect(func(c SetChange[string]) { log = append(log, c) })

		assert.NoError(t, s.Add("a"))
		assert.NoError(t, s.Add("a"))

		assert.Equal(t, []SetChange[string]{{Kind: Added, Value: "a"}}, log)
		assert.True(t, s.Contains("a"))
	})

	t.Run("add_force always emits", func(t *testing.T) {
		s := NewRSet("a")
		var count int
		s.Connect(func(SetChange[string]) { count++ })

		assert.NoError(t, s.AddForce("a"))
		assert.Equal(t, 1, count)
	})
}

func TestRSetRemove(t *testing.T) {
	t.Run("remove emits Removed(e) iff e was present", func(t *testing.T) {
		s := NewRSet("a")
		var log []SetChange[string]
		s.Connect(func(c SetChange[string]) { log = append(log, c) })

		assert.NoError(t, s.Remove("missing"))
		assert.Empty(t, log)

		assert.NoError(t, s.Remove("a"))
		assert.Equal(t, []SetChange[string]{{Kind: Removed, Value: "a"}}, log)
		assert.False(t, s.Contains("a"))
	})

	t.Run("remove_force always emits", func(t *testing.T) {
		s := NewRSet[string]()
		var count int
		s.Connect(func(SetChange[string]) { count++ })

		assert.NoError(t, s.RemoveForce("missing"))
		assert.Equal(t, 1, count)
	})
}

func TestRSetClear(t *testing.T) {
	t.Run("emits one Removed per member, snapshot then clear", func(t *testing.T) {
		s := NewRSet("a", "b", "c")
		var count int
		s.Connect(func(SetChange[string]) { count++ })

		assert.NoError(t, s.Clear())
		assert.Equal(t, 3, count)
		assert.Equal(t, 0, s.Len())
	})
}

func TestRSetConnectNotify(t *testing.T) {
	t.Run("replays current members as Added", func(t *testing.T) {
		s := NewRSet("x")
		var log []SetChange[string]
		s.ConnectNotify(func(c SetChange[string]) { log = append(log, c) })

		assert.Equal(t, []SetChange[string]{{Kind: Added, Value: "x"}}, log)
	})
}

func TestRSetSizeView(t *testing.T) {
	t.Run("tracks cardinality after each mutation", func(t *testing.T) {
		s := NewRSet[int]()
		size := s.SizeView()
		assert.Equal(t, 0, size.Get())

		s.Add(1)
		s.Add(2)
		assert.Equal(t, 2, size.Get())

		s.Remove(1)
		assert.Equal(t, 1, size.Get())
	})
}

func TestRSetContainsView(t *testing.T) {
	t.Run("updates on every add/remove of the element", func(t *testing.T) {
		s := NewRSet[string]()
		view := s.ContainsView("a")
		assert.False(t, view.Get())

		s.Add("a")
		assert.True(t, view.Get())

		s.Remove("a")
		assert.False(t, view.Get())
	})
}

// TestRSetViewCacheDoesNotPinMemory mirrors the RMap weak-view-cache
// reclamation test: a contains_view nobody keeps a strong reference to
// should be collectible rather than pinned by the set forever.
func TestRSetViewCacheDoesNotPinMemory(t *testing.T) {
	if !internal.WeakHoldingSupported {
		t.Skip("this build's weak package is unavailable; views degrade to strong retention")
	}

	s := NewRSet[string]()
	func() {
		view := s.ContainsView("a")
		_ = view
	}()

	runtime.GC()
	runtime.GC()

	s.viewsMu.Lock()
	wp, ok := s.containsViews["a"]
	s.viewsMu.Unlock()
	if !ok {
		return
	}
	_, alive := wp.Value()
	assert.False(t, alive, "the view should have been collected once nothing outside the cache held it")
}
