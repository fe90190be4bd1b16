package reax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionCloseIsIdempotent(t *testing.T) {
	t.Run("closing twice invokes teardown at most once", func(t *testing.T) {
		s := NewSignal[int]()
		var count int
		conn, err := s.Connect(func(int) { count++ })
		assert.NoError(t, err)

		assert.NoError(t, conn.Close())
		assert.NoError(t, conn.Close())

		s.Emit(1)
		assert.Equal(t, 0, count)
	})
}

func TestConnectionOnce(t *testing.T) {
	t.Run("fires at most once", func(t *testing.T) {
		s := NewSignal[int]()
		var count int
		conn, _ := s.Connect(func(int) { count++ })
		conn.Once()

		s.Emit(1)
		s.Emit(2)

		assert.Equal(t, 1, count)
	})
}

func TestJoinConnections(t *testing.T) {
	t.Run("closing the join closes every child connection", func(t *testing.T) {
		a := NewSignal[int]()
		b := NewSignal[int]()

		connA, _ := a.Connect(func(int) {})
		connB, _ := b.Connect(func(int) {})

		joined := JoinConnections(connA, connB)
		assert.NoError(t, joined.Close())

		assert.False(t, a.HasConnections())
		assert.False(t, b.HasConnections())
	})

	t.Run("once marks every child one-shot", func(t *testing.T) {
		a := NewSignal[int]()
		b := NewSignal[int]()

		var log []string
		connA, _ := a.Connect(func(int) { log = append(log, "a") })
		connB, _ := b.Connect(func(int) { log = append(log, "b") })

		JoinConnections(connA, connB).Once()

		a.Emit(1)
		a.Emit(1)
		b.Emit(1)
		b.Emit(1)

		assert.Equal(t, []string{"a", "b"}, log)
	})
}

func TestConnectAtPrio(t *testing.T) {
	t.Run("reorders dispatch for later emissions", func(t *testing.T) {
		s := NewSignal[int]()
		var log []string

		low, _ := s.ConnectAt(0, func(int) { log = append(log, "low") })
		s.ConnectAt(5, func(int) { log = append(log, "high") })

		assert.NoError(t, low.AtPrio(10))
		s.Emit(1)

		assert.Equal(t, []string{"low", "high"}, log)
	})
}
