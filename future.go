package reax

import (
	"sync"

	"github.com/arborist-dev/reax/internal"
)

type futureState int

const (
	pending futureState = iota
	succeeded
	failed
)

// Future is a single-valued, eventually-completed result. It carries
// no notion of cancellation or retry; Promise is the write side that
// drives it to completion exactly once.
type Future[T any] struct {
	mu          sync.Mutex
	state       futureState
	value       T
	cause       error
	onOK        *internal.Reactor[func(T)]
	onErr       *internal.Reactor[func(error)]
	onDone      *internal.Reactor[func(Try[T])]
	completeOnce sync.Once
	isComplete  *Value[bool] // lazily built by IsComplete; see completeOnce.
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		onOK:   internal.New[func(T)](),
		onErr:  internal.New[func(error)](),
		onDone: internal.New[func(Try[T])](),
	}
}

// SucceededFuture returns a future that is already complete with v.
func SucceededFuture[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.state = succeeded
	f.value = v
	return f
}

// FailedFuture returns a future that is already complete with err.
func FailedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.state = failed
	f.cause = err
	return f
}

// IsCompleteNow reports whether this future has settled, one way or
// the other, without allocating the lazy Value IsComplete returns.
func (f *Future[T]) IsCompleteNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != pending
}

// IsComplete returns a Value[bool] tracking completion, built lazily
// and exactly once (sync.Once makes the lazy init safe for a future
// touched from more than one goroutine before it settles, which the
// single-threaded dispatch model otherwise doesn't require).
func (f *Future[T]) IsComplete() *Value[bool] {
	f.completeOnce.Do(func() {
		f.isComplete = NewValue(f.IsCompleteNow())
	})
	return f.isComplete
}

// Result returns the settled Try, or (zero Try, false) if still
// pending.
func (f *Future[T]) Result() (Try[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case succeeded:
		return Success(f.value), true
	case failed:
		return Failure[T](f.cause), true
	default:
		return Try[T]{}, false
	}
}

// OnSuccess registers listener for the success case. If the future is
// already successfully complete, listener fires synchronously before
// OnSuccess returns; if it already failed, listener never fires and
// is not retained.
func (f *Future[T]) OnSuccess(listener func(T)) *Connection {
	f.mu.Lock()
	state, value := f.state, f.value
	f.mu.Unlock()

	if state != pending {
		if state == succeeded {
			listener(value)
		}
		return newConnection(connHandle[func(T)]{reg: closedNoop(f.onOK)})
	}
	return wrapConnection(f.onOK.Connect(listener, 0))
}

// OnFailure registers listener for the failure case, with the same
// already-complete fast path as OnSuccess.
func (f *Future[T]) OnFailure(listener func(error)) *Connection {
	f.mu.Lock()
	state, cause := f.state, f.cause
	f.mu.Unlock()

	if state != pending {
		if state == failed {
			listener(cause)
		}
		return newConnection(connHandle[func(error)]{reg: closedNoop(f.onErr)})
	}
	return wrapConnection(f.onErr.Connect(listener, 0))
}

// OnComplete registers listener for either outcome, wrapped as a Try.
func (f *Future[T]) OnComplete(listener func(Try[T])) *Connection {
	f.mu.Lock()
	state, value, cause := f.state, f.value, f.cause
	f.mu.Unlock()

	switch state {
	case succeeded:
		listener(Success(value))
		return newConnection(connHandle[func(Try[T])]{reg: closedNoop(f.onDone)})
	case failed:
		listener(Failure[T](cause))
		return newConnection(connHandle[func(Try[T])]{reg: closedNoop(f.onDone)})
	default:
		return wrapConnection(f.onDone.Connect(listener, 0))
	}
}

// closedNoop returns an already-closed registration on r, used as the
// Connection handed back for a listener that fired synchronously
// because the future was already complete: closing it is a no-op.
func closedNoop[L any](r *internal.Reactor[L]) *internal.Registration[L] {
	var zero L
	reg := r.Connect(zero, 0)
	reg.Close()
	return reg
}

func (f *Future[T]) complete(value T, cause error, isSuccess bool) error {
	f.mu.Lock()
	if f.state != pending {
		f.mu.Unlock()
		return internal.NewIllegalState("Promise.Complete", "future already complete")
	}
	if isSuccess {
		f.state = succeeded
		f.value = value
	} else {
		f.state = failed
		f.cause = cause
	}
	f.mu.Unlock()

	var failures []error
	if isSuccess {
		if err := f.onOK.Notify(func(l func(T)) { l(value) }); err != nil {
			failures = append(failures, err)
		}
	} else {
		if err := f.onErr.Notify(func(l func(error)) { l(cause) }); err != nil {
			failures = append(failures, err)
		}
	}
	var result Try[T]
	if isSuccess {
		result = Success(value)
	} else {
		result = Failure[T](cause)
	}
	if err := f.onDone.Notify(func(l func(Try[T])) { l(result) }); err != nil {
		failures = append(failures, err)
	}

	_ = f.onOK.ClearConnections()
	_ = f.onErr.ClearConnections()
	_ = f.onDone.ClearConnections()

	if f.isComplete != nil {
		f.isComplete.Update(true)
	}

	return internal.AsFailure(failures)
}

// MapFuture transforms a successful result; a failure passes through
// untouched.
func MapFuture[T, R any](f *Future[T], fn func(T) R) *Future[R] {
	out := newFuture[R]()
	f.OnSuccess(func(v T) { _ = out.promiseSucceed(fn(v)) })
	f.OnFailure(func(err error) { _ = out.promiseFail(err) })
	return out
}

// FlatMapFuture chains a Future-returning computation onto a
// successful result.
func FlatMapFuture[T, R any](f *Future[T], fn func(T) *Future[R]) *Future[R] {
	out := newFuture[R]()
	f.OnSuccess(func(v T) {
		inner := fn(v)
		inner.OnSuccess(func(r R) { _ = out.promiseSucceed(r) })
		inner.OnFailure(func(err error) { _ = out.promiseFail(err) })
	})
	f.OnFailure(func(err error) { _ = out.promiseFail(err) })
	return out
}

// RecoverFuture turns a failure into a success by applying fn to the
// failure reason.
func RecoverFuture[T any](f *Future[T], fn func(error) T) *Future[T] {
	out := newFuture[T]()
	f.OnSuccess(func(v T) { _ = out.promiseSucceed(v) })
	f.OnFailure(func(err error) { _ = out.promiseSucceed(fn(err)) })
	return out
}

// TransformFuture maps both outcomes of f through a single Try-valued
// function, the general form of Map/Recover combined.
func TransformFuture[T, R any](f *Future[T], fn func(Try[T]) Try[R]) *Future[R] {
	out := newFuture[R]()
	f.OnComplete(func(t Try[T]) {
		r := fn(t)
		if r.IsSuccess() {
			_ = out.promiseSucceed(r.Get())
		} else {
			_ = out.promiseFail(r.Failed())
		}
	})
	return out
}

func (f *Future[T]) promiseSucceed(v T) error { return f.complete(v, nil, true) }
func (f *Future[T]) promiseFail(err error) error {
	var zero T
	return f.complete(zero, err, false)
}

// Promise is the write side of a Future: exactly one of Succeed/Fail
// may be called, ever.
type Promise[T any] struct {
	future *Future[T]
}

// NewPromise creates a pending promise and its paired future.
func NewPromise[T any]() *Promise[T] { return &Promise[T]{future: newFuture[T]()} }

// Future returns the read side paired with this promise.
func (p *Promise[T]) Future() *Future[T] { return p.future }

// Succeed completes the paired future successfully. Returns
// IllegalState if already complete.
func (p *Promise[T]) Succeed(v T) error { return p.future.promiseSucceed(v) }

// Fail completes the paired future with err. Returns IllegalState if
// already complete.
func (p *Promise[T]) Fail(err error) error { return p.future.promiseFail(err) }

// Complete settles the paired future with an already-built Try.
// Returns IllegalState if already complete.
func (p *Promise[T]) Complete(t Try[T]) error {
	if t.IsSuccess() {
		return p.future.promiseSucceed(t.Get())
	}
	return p.future.promiseFail(t.Failed())
}

// Result, IsCompleteNow, and IsComplete mirror the paired Future's
// query surface, so a Promise can be queried without a caller having
// to ask for its Future first.
func (p *Promise[T]) Result() (Try[T], bool)   { return p.future.Result() }
func (p *Promise[T]) IsCompleteNow() bool      { return p.future.IsCompleteNow() }
func (p *Promise[T]) IsComplete() *Value[bool] { return p.future.IsComplete() }

// SequenceFutures waits for every future in fs; succeeds with the
// slice of results in order if all succeed, or fails with a
// MultiFailure collecting every failure in arrival order if one or
// more fail (a single failure is still wrapped in a MultiFailure).
func SequenceFutures[T any](fs []*Future[T]) *Future[[]T] {
	out := newFuture[[]T]()
	if len(fs) == 0 {
		_ = out.promiseSucceed(nil)
		return out
	}

	var mu sync.Mutex
	results := make([]T, len(fs))
	var failures []error
	remaining := len(fs)

	finish := func() {
		if remaining != 0 {
			return
		}
		if len(failures) > 0 {
			_ = out.promiseFail(&internal.MultiFailure{Failures: failures})
			return
		}
		_ = out.promiseSucceed(results)
	}

	for i, fut := range fs {
		i := i
		fut.OnComplete(func(t Try[T]) {
			mu.Lock()
			defer mu.Unlock()
			if t.IsSuccess() {
				results[i] = t.Get()
			} else {
				failures = append(failures, t.Failed())
			}
			remaining--
			finish()
		})
	}
	return out
}

// CollectFutures is the success-only sibling of SequenceFutures: it
// always succeeds, with the successful results in arrival order (the
// order in which each input future actually settles) and every
// failure silently dropped.
func CollectFutures[T any](fs []*Future[T]) *Future[[]T] {
	out := newFuture[[]T]()
	if len(fs) == 0 {
		_ = out.promiseSucceed(nil)
		return out
	}

	var mu sync.Mutex
	var results []T
	remaining := len(fs)

	for _, fut := range fs {
		fut.OnComplete(func(t Try[T]) {
			mu.Lock()
			defer mu.Unlock()
			if t.IsSuccess() {
				results = append(results, t.Get())
			}
			remaining--
			if remaining == 0 {
				_ = out.promiseSucceed(results)
			}
		})
	}
	return out
}
