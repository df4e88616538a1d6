// Package container provides the state container a batchstore decorates.
//
// Container is the contract the decorator relies on; Store is a small
// reducer-driven implementation of it. A Store notifies its own listeners
// after every action it applies. The decorator keeps a separate registry,
// which is what lets a batch of N actions produce a single notification.
package container

import (
	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/listener"
)

// Reserved action types dispatched by the Store itself.
const (
	ActionInit    = "@@batchstore/INIT"
	ActionReplace = "@@batchstore/REPLACE"
)

// Reducer computes the next state for a leaf action. Reducers must not
// dispatch; an error aborts the action and leaves the state unchanged.
type Reducer[S any] func(state S, a action.Action) (S, error)

// Container is the contract of the underlying state container.
type Container[S any] interface {
	// Dispatch applies a single leaf action. It must reject calls made from
	// inside its own reducer.
	Dispatch(a action.Action) (any, error)

	// Subscribe registers a listener called after every applied action.
	Subscribe(l listener.Listener) (listener.Unsubscribe, error)

	// GetState returns the current state.
	GetState() S

	// ReplaceReducer swaps the reducer.
	ReplaceReducer(r Reducer[S]) error
}

// Store is a reducer-driven Container.
type Store[S any] struct {
	reducer   Reducer[S]
	state     S
	reducing  listener.Guard
	listeners *listener.Registry
}

var _ Container[int] = (*Store[int])(nil)

// New creates a Store and dispatches ActionInit so the reducer can
// populate the initial state.
func New[S any](reducer Reducer[S], initial S) (*Store[S], error) {
	if reducer == nil {
		return nil, errors.New("E005")
	}
	s := &Store[S]{
		reducer: reducer,
		state:   initial,
	}
	s.listeners = listener.NewRegistry(&s.reducing)

	if _, err := s.Dispatch(action.Action{Type: ActionInit}); err != nil {
		return nil, err
	}
	return s, nil
}

// Dispatch applies a to the state and notifies the Store's listeners.
// The returned result is the action itself.
func (s *Store[S]) Dispatch(a action.Action) (any, error) {
	if a.Type == "" {
		return nil, errors.Newf("E004", "action type must not be empty")
	}
	if s.reducing.Active() {
		return nil, errors.New("E022")
	}

	next, err := s.reduce(a)
	if err != nil {
		return nil, err
	}
	s.state = next

	s.listeners.Notify()
	return a, nil
}

func (s *Store[S]) reduce(a action.Action) (S, error) {
	release := s.reducing.Enter()
	defer release()
	return s.reducer(s.state, a)
}

// Subscribe registers l. It fails while the reducer is executing.
func (s *Store[S]) Subscribe(l listener.Listener) (listener.Unsubscribe, error) {
	return s.listeners.Subscribe(l)
}

// GetState returns the current state.
func (s *Store[S]) GetState() S {
	return s.state
}

// ReplaceReducer swaps the reducer and dispatches ActionReplace.
func (s *Store[S]) ReplaceReducer(r Reducer[S]) error {
	if r == nil {
		return errors.New("E005")
	}
	s.reducer = r
	_, err := s.Dispatch(action.Action{Type: ActionReplace})
	return err
}
