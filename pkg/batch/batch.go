// Package batch delivers one action or an ordered batch of actions to the
// container and notifies observers exactly once per call.
//
// Batch groups multiple actions into a single notification phase: every
// leaf is applied in order, and the registry's listeners run once when the
// whole batch has been applied. Observers therefore never see a partially
// applied batch.
//
// Example:
//
//	u := batch.New(store, registry, guard)
//	u.Dispatch(action.Sequence{addTodo("Hello"), addTodo("World")})
//	// listeners run once, after both todos were added
package batch

import (
	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/listener"
)

// Dispatcher applies a single leaf action.
type Dispatcher interface {
	Dispatch(a action.Action) (any, error)
}

// Unwrapper expands batches into leaf deliveries.
type Unwrapper struct {
	next     Dispatcher
	registry *listener.Registry
	guard    *listener.Guard
}

// New returns an Unwrapper delivering to next and notifying registry.
// guard is held while leaves are being delivered.
func New(next Dispatcher, registry *listener.Registry, guard *listener.Guard) *Unwrapper {
	return &Unwrapper{
		next:     next,
		registry: registry,
		guard:    guard,
	}
}

// Dispatch delivers m and runs one notification round.
//
// A leaf returns the container's result. A Sequence is delivered depth-first,
// left to right, and returns a []any of the same shape. If any delivery
// fails, the rest of the batch is skipped, no notification round runs and
// the error is returned unmodified.
func (u *Unwrapper) Dispatch(m action.Message) (any, error) {
	if err := action.Validate(m); err != nil {
		return nil, err
	}

	result, err := u.deliverGuarded(m)
	if err != nil {
		return nil, err
	}

	u.registry.Notify()
	return result, nil
}

func (u *Unwrapper) deliverGuarded(m action.Message) (any, error) {
	release := u.guard.Enter()
	defer release()
	return u.deliver(m)
}

func (u *Unwrapper) deliver(m action.Message) (any, error) {
	switch v := m.(type) {
	case action.Sequence:
		results := make([]any, 0, len(v))
		for _, child := range v {
			r, err := u.deliver(child)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
		return results, nil
	case action.Envelope:
		return u.deliver(v.Payload)
	case action.Action:
		return u.next.Dispatch(v)
	}
	return nil, nil
}
