package container

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/todos"
)

func newTodoStore(t *testing.T) *Store[todos.State] {
	t.Helper()
	s, err := New(todos.Reducer, todos.State{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewRequiresReducer(t *testing.T) {
	_, err := New[int](nil, 0)
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("New(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestNewDispatchesInit(t *testing.T) {
	var seen []string
	_, err := New(func(s int, a action.Action) (int, error) {
		seen = append(seen, a.Type)
		return s, nil
	}, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := []string{ActionInit}; !reflect.DeepEqual(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestDispatchAppliesAndNotifies(t *testing.T) {
	s := newTodoStore(t)
	notified := 0
	s.Subscribe(func() { notified++ })

	result, err := s.Dispatch(todos.AddTodo("Hello"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if a, ok := result.(action.Action); !ok || a.Type != todos.TypeAddTodo {
		t.Errorf("result = %#v, want the dispatched action", result)
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
	if want := (todos.State{{ID: 1, Text: "Hello"}}); !reflect.DeepEqual(s.GetState(), want) {
		t.Errorf("state = %v, want %v", s.GetState(), want)
	}
}

func TestDispatchRejectsEmptyType(t *testing.T) {
	s := newTodoStore(t)
	if _, err := s.Dispatch(action.Action{}); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Dispatch(empty) error = %v, want ErrInvalidArgument", err)
	}
}

func TestReducerErrorLeavesState(t *testing.T) {
	boom := stderrors.New("boom")
	s, _ := New(func(n int, a action.Action) (int, error) {
		if a.Type == "FAIL" {
			return n + 100, boom
		}
		return n + 1, nil
	}, 0)
	notified := 0
	s.Subscribe(func() { notified++ })

	if _, err := s.Dispatch(action.New("FAIL", nil)); err != boom {
		t.Fatalf("Dispatch() error = %v, want the reducer error unmodified", err)
	}
	if s.GetState() != 1 {
		t.Errorf("state = %d, want 1", s.GetState())
	}
	if notified != 0 {
		t.Errorf("notified = %d, want 0", notified)
	}

	// The guard was released.
	if _, err := s.Dispatch(action.New("OK", nil)); err != nil {
		t.Errorf("Dispatch() after failure error = %v", err)
	}
}

func TestReducerMayNotDispatch(t *testing.T) {
	var s *Store[int]
	var inner error
	s, _ = New(func(n int, a action.Action) (int, error) {
		if a.Type == "OUTER" {
			_, inner = s.Dispatch(action.New("INNER", nil))
		}
		return n, nil
	}, 0)

	if _, err := s.Dispatch(action.New("OUTER", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !stderrors.Is(inner, errors.ErrIllegalReentrantCall) {
		t.Errorf("inner dispatch error = %v, want ErrIllegalReentrantCall", inner)
	}
}

func TestReducerMayNotSubscribe(t *testing.T) {
	var s *Store[int]
	var subErr error
	s, _ = New(func(n int, a action.Action) (int, error) {
		if a.Type == "SUB" {
			_, subErr = s.Subscribe(func() {})
		}
		return n, nil
	}, 0)

	s.Dispatch(action.New("SUB", nil))
	if !stderrors.Is(subErr, errors.ErrIllegalReentrantCall) {
		t.Errorf("subscribe in reducer error = %v, want ErrIllegalReentrantCall", subErr)
	}
}

func TestReplaceReducer(t *testing.T) {
	s := newTodoStore(t)
	s.Dispatch(todos.AddTodo("A"))

	var seen string
	err := s.ReplaceReducer(func(st todos.State, a action.Action) (todos.State, error) {
		seen = a.Type
		return st, nil
	})
	if err != nil {
		t.Fatalf("ReplaceReducer() error = %v", err)
	}
	if seen != ActionReplace {
		t.Errorf("seen = %q, want %q", seen, ActionReplace)
	}

	s.Dispatch(todos.AddTodo("B"))
	if len(s.GetState()) != 1 {
		t.Errorf("state = %v, replaced reducer should ignore ADD_TODO", s.GetState())
	}

	if err := s.ReplaceReducer(nil); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("ReplaceReducer(nil) error = %v, want ErrInvalidArgument", err)
	}
}
