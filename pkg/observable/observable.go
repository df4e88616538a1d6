// Package observable exposes store state as a push stream.
//
// An Observable has no notification logic of its own. It registers a
// listener with the store's registry and projects the current state into
// each observer, so observers only ever see the state as of the most
// recently completed notification round.
package observable

import (
	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/listener"
)

// Subscriber is the registry an Observable registers with.
type Subscriber interface {
	Subscribe(l listener.Listener) (listener.Unsubscribe, error)
}

// Observer receives state values. Next is optional.
type Observer[S any] struct {
	Next func(state S)
}

// Subscription is returned by Subscribe.
type Subscription struct {
	unsubscribe listener.Unsubscribe
}

// Unsubscribe stops delivery. It is idempotent.
func (s Subscription) Unsubscribe() error {
	if s.unsubscribe == nil {
		return nil
	}
	return s.unsubscribe()
}

// Observable pushes state to observers.
type Observable[S any] struct {
	subscriber Subscriber
	getState   func() S
}

// New returns an Observable over subscriber, reading state with getState.
func New[S any](subscriber Subscriber, getState func() S) *Observable[S] {
	return &Observable[S]{
		subscriber: subscriber,
		getState:   getState,
	}
}

// Subscribe replays the current state to o immediately, then again after
// every notification round.
//
// The replay happens before registration, so an observer may receive one
// value even when Subscribe then fails with an IllegalReentrantCall error.
func (o *Observable[S]) Subscribe(observer *Observer[S]) (Subscription, error) {
	if observer == nil {
		return Subscription{}, errors.New("E003")
	}

	observe := func() {
		if observer.Next != nil {
			observer.Next(o.getState())
		}
	}

	observe()
	unsubscribe, err := o.subscriber.Subscribe(observe)
	if err != nil {
		return Subscription{}, err
	}
	return Subscription{unsubscribe: unsubscribe}, nil
}

// SubscribeFunc is Subscribe with an observer built from next.
func (o *Observable[S]) SubscribeFunc(next func(state S)) (Subscription, error) {
	return o.Subscribe(&Observer[S]{Next: next})
}
