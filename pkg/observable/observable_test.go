package observable

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/listener"
)

func TestSubscribeReplaysAndFollows(t *testing.T) {
	reg := listener.NewRegistry(&listener.Guard{})
	state := 1
	obs := New[int](reg, func() int { return state })

	var seen []int
	sub, err := obs.SubscribeFunc(func(s int) { seen = append(seen, s) })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !reflect.DeepEqual(seen, []int{1}) {
		t.Fatalf("seen after subscribe = %v, want [1]", seen)
	}

	state = 2
	reg.Notify()
	state = 3
	reg.Notify()
	if !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("seen = %v, want [1 2 3]", seen)
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("second Unsubscribe() error = %v", err)
	}
	state = 4
	reg.Notify()
	if len(seen) != 3 {
		t.Errorf("seen = %v, want no values after unsubscribe", seen)
	}
}

func TestSubscribeNilObserver(t *testing.T) {
	obs := New[int](listener.NewRegistry(nil), func() int { return 0 })
	_, err := obs.Subscribe(nil)
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Subscribe(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestObserverWithoutNext(t *testing.T) {
	reg := listener.NewRegistry(nil)
	obs := New[int](reg, func() int { return 0 })

	if _, err := obs.Subscribe(&Observer[int]{}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	reg.Notify()
}

func TestSubscribeGuarded(t *testing.T) {
	g := &listener.Guard{}
	reg := listener.NewRegistry(g)
	obs := New[int](reg, func() int { return 0 })

	release := g.Enter()
	defer release()
	_, err := obs.SubscribeFunc(func(int) {})
	if !stderrors.Is(err, errors.ErrIllegalReentrantCall) {
		t.Errorf("Subscribe() error = %v, want ErrIllegalReentrantCall", err)
	}
}

func TestZeroSubscriptionUnsubscribe(t *testing.T) {
	var sub Subscription
	if err := sub.Unsubscribe(); err != nil {
		t.Errorf("Unsubscribe() on zero Subscription error = %v", err)
	}
}

func TestRejectedSubscribeStillReplays(t *testing.T) {
	var guard listener.Guard
	reg := listener.NewRegistry(&guard)
	obs := New[int](reg, func() int { return 7 })

	release := guard.Enter()
	var seen []int
	_, err := obs.SubscribeFunc(func(s int) { seen = append(seen, s) })
	release()

	if !stderrors.Is(err, errors.ErrIllegalReentrantCall) {
		t.Fatalf("Subscribe() error = %v, want ErrIllegalReentrantCall", err)
	}
	if !reflect.DeepEqual(seen, []int{7}) {
		t.Errorf("seen = %v, want the single replayed value [7]", seen)
	}

	reg.Notify()
	if len(seen) != 1 {
		t.Errorf("seen = %v, rejected observer must not be registered", seen)
	}
}
