package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

// Closeable is a single-method cancellation capability. *Connection
// satisfies it.
type Closeable interface {
	Close() error
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NOOP is a Closeable whose Close is always a no-op, used for the
// "uninitialized" pattern (a field that starts out as NOOP and is
// replaced once something real needs closing).
var NOOP Closeable = closerFunc(func() error { return nil })

// CloseableSet aggregates multiple Closeables. Closing the set closes
// each member in turn, accumulates any failures into a MultiFailure,
// clears its contents, and then returns the aggregate failure.
type CloseableSet struct {
	mu      sync.Mutex
	members []Closeable
}

func NewCloseableSet(members ...Closeable) *CloseableSet {
	return &CloseableSet{members: append([]Closeable{}, members...)}
}

// Add registers another member to be closed alongside the rest.
func (s *CloseableSet) Add(c Closeable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, c)
}

// Close closes every member, clears the set, and returns the
// accumulated failure (nil, the single error, or a MultiFailure).
func (s *CloseableSet) Close() error {
	s.mu.Lock()
	members := s.members
	s.members = nil
	s.mu.Unlock()

	var failures []error
	for _, c := range members {
		if err := c.Close(); err != nil {
			failures = append(failures, err)
		}
	}
	return internal.AsFailure(failures)
}

// JoinCloseables returns a single Closeable that closes every one of
// cs when closed.
func JoinCloseables(cs ...Closeable) Closeable {
	return NewCloseableSet(cs...)
}

// CloseCloseable closes c and always returns NOOP, so a caller can do
// `field = CloseCloseable(field)` to close-then-reset a field to the
// uninitialized pattern in one step. NOOP's Close is always a no-op,
// so this is idempotent.
func CloseCloseable(c Closeable) Closeable {
	if c != nil {
		_ = c.Close()
	}
	return NOOP
}
