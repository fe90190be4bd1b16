package reax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRListAdd(t *testing.T) {
	t.Run("add appends and emits Added at size-1", func(t *testing.T) {
		l := NewRList[string]()
		var log []Change[string]
		l.Connect(func(c Change[string]) { log = append(log, c) })

		assert.NoError(t, l.Add("a"))
		assert.NoError(t, l.Add("b"))

		assert.Equal(t, []Change[string]{
			{Kind: Added, Index: 0, Value: "a"},
			{Kind: Added, Index: 1, Value: "b"},
		}, log)
	})
}

func TestRListAddAt(t *testing.T) {
	t.Run("inserts at the given index and emits Added(i, elem)", func(t *testing.T) {
		l := NewRList(1, 2, 3)
		var log []Change[int]
		l.Connect(func(c Change[int]) { log = append(log, c) })

		assert.NoError(t, l.AddAt(1, 99))

		assert.Equal(t, []int{1, 99, 2, 3}, l.Snapshot())
		assert.Equal(t, []Change[int]{{Kind: Added, Index: 1, Value: 99}}, log)
	})
}

func TestRListSet(t *testing.T) {
	t.Run("replaces an element and emits Updated(i, new, old)", func(t *testing.T) {
		l := NewRList("a", "b", "c")
		var log []Change[string]
		l.Connect(func(c Change[string]) { log = append(log, c) })

		old, err := l.Set(1, "B")
		assert.NoError(t, err)
		assert.Equal(t, "b", old)

		oldCopy := "b"
		assert.Equal(t, []Change[string]{
			{Kind: Updated, Index: 1, Value: "B", Old: &oldCopy},
		}, log)
	})
}

func TestRListRemove(t *testing.T) {
	t.Run("remove by index emits Removed(i, old)", func(t *testing.T) {
		l := NewRList("a", "b", "c")
		var log []Change[string]
		l.Connect(func(c Change[string]) { log = append(log, c) })

		old, err := l.Remove(1)
		assert.NoError(t, err)
		assert.Equal(t, "b", old)
		assert.Equal(t, []string{"a", "c"}, l.Snapshot())
		assert.Equal(t, []Change[string]{{Kind: Removed, Index: 1, Value: "b"}}, log)
	})

	t.Run("remove by value finds the first match and emits, or does nothing", func(t *testing.T) {
		l := NewRList("a", "b", "a")
		var log []Change[string]
		l.Connect(func(c Change[string]) { log = append(log, c) })

		idx, err := l.RemoveValue("a")
		assert.NoError(t, err)
		assert.Equal(t, 0, idx)
		assert.Equal(t, []string{"b", "a"}, l.Snapshot())

		idx2, err := l.RemoveValue("z")
		assert.NoError(t, err)
		assert.Equal(t, -1, idx2)

		assert.Equal(t, []Change[string]{{Kind: Removed, Index: 0, Value: "a"}}, log)
	})

	t.Run("remove_force always emits even when the element is absent", func(t *testing.T) {
		l := NewRList("a")
		var log []Change[string]
		l.Connect(func(c Change[string]) { log = append(log, c) })

		idx, err := l.RemoveForce("missing")
		assert.NoError(t, err)
		assert.True(t, idx < 0)
		assert.Equal(t, []Change[string]{{Kind: Removed, Index: -1, Value: "missing"}}, log)
	})
}

func TestRListClear(t *testing.T) {
	t.Run("emits one Removed per element and leaves the list empty during each emission", func(t *testing.T) {
		l := NewRList("a", "b", "c")
		var sawLenDuringEmission []int
		l.Connect(func(c Change[string]) {
			sawLenDuringEmission = append(sawLenDuringEmission, l.Len())
		})

		assert.NoError(t, l.Clear())
		assert.Equal(t, []int{0, 0, 0}, sawLenDuringEmission)
		assert.Equal(t, 0, l.Len())
	})
}

func TestRListSizeView(t *testing.T) {
	t.Run("tracks length after each mutation", func(t *testing.T) {
		l := NewRList[int]()
		size := l.SizeView()
		assert.Equal(t, 0, size.Get())

		l.Add(1)
		l.Add(2)
		assert.Equal(t, 2, size.Get())

		l.Remove(0)
		assert.Equal(t, 1, size.Get())
	})
}

func TestRListConnectNotify(t *testing.T) {
	t.Run("replays current elements as Added in index order", func(t *testing.T) {
		l := NewRList("x", "y")
		var log []Change[string]
		l.ConnectNotify(func(c Change[string]) { log = append(log, c) })

		assert.Equal(t, []Change[string]{
			{Kind: Added, Index: 0, Value: "x"},
			{Kind: Added, Index: 1, Value: "y"},
		}, log)
	})
}
