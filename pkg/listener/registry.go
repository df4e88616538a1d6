package listener

import (
	"github.com/vango-dev/batchstore/internal/errors"
)

// Listener is notified after every completed notification round.
type Listener func()

// Unsubscribe removes the registration it was returned for.
// Calling it again after a successful call is a no-op.
type Unsubscribe func() error

// entry gives every registration its own identity, so the same func
// subscribed twice is removed one registration at a time.
type entry struct {
	fn Listener
}

// Registry holds the listeners of one store. It is not safe for concurrent
// use; all calls happen on the owning store's goroutine.
type Registry struct {
	guard *Guard

	current []*entry
	next    []*entry

	// shared is true while next and current are the same slice.
	shared bool
}

// NewRegistry creates an empty registry guarded by g. A nil guard never
// rejects mutation.
func NewRegistry(g *Guard) *Registry {
	return &Registry{guard: g, shared: true}
}

// ensureCanMutateNext clones current into next on the first mutation since
// the last notification round.
func (r *Registry) ensureCanMutateNext() {
	if r.shared {
		r.next = append([]*entry(nil), r.current...)
		r.shared = false
	}
}

// Subscribe registers l and returns its Unsubscribe.
func (r *Registry) Subscribe(l Listener) (Unsubscribe, error) {
	if l == nil {
		return nil, errors.New("E001")
	}
	if r.guard.Active() {
		return nil, errors.New("E020")
	}

	e := &entry{fn: l}
	r.ensureCanMutateNext()
	r.next = append(r.next, e)

	subscribed := true
	return func() error {
		if !subscribed {
			return nil
		}
		if r.guard.Active() {
			return errors.New("E021")
		}
		subscribed = false

		r.ensureCanMutateNext()
		for i, cand := range r.next {
			if cand == e {
				r.next = append(r.next[:i], r.next[i+1:]...)
				break
			}
		}
		return nil
	}, nil
}

// Notify starts a notification round: next becomes the current snapshot and
// every listener in it runs in registration order. A panicking listener ends
// the round; the panic reaches the caller.
func (r *Registry) Notify() {
	if !r.shared {
		r.current = r.next
		r.shared = true
	}
	snapshot := r.current
	for _, e := range snapshot {
		e.fn()
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	if r.shared {
		return len(r.current)
	}
	return len(r.next)
}
