// Package todos is a small reducer used by the CLI demo server and the tests.
package todos

import (
	"fmt"

	"github.com/vango-dev/batchstore/pkg/action"
)

// Action types handled by Reducer.
const (
	TypeAddTodo    = "ADD_TODO"
	TypeClearTodos = "CLEAR_TODOS"
)

// Todo is a single record.
type Todo struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// State is the reducer state.
type State []Todo

// AddTodo returns an ADD_TODO action.
func AddTodo(text string) action.Action {
	return action.New(TypeAddTodo, map[string]any{"text": text})
}

// ClearTodos returns a CLEAR_TODOS action.
func ClearTodos() action.Action {
	return action.New(TypeClearTodos, nil)
}

// Reducer appends a record with the next id for ADD_TODO and empties the
// list for CLEAR_TODOS. Other actions leave the state untouched.
func Reducer(state State, a action.Action) (State, error) {
	switch a.Type {
	case TypeAddTodo:
		text, err := textOf(a.Payload)
		if err != nil {
			return state, err
		}
		next := make(State, len(state), len(state)+1)
		copy(next, state)
		return append(next, Todo{ID: nextID(state), Text: text}), nil
	case TypeClearTodos:
		return State{}, nil
	default:
		return state, nil
	}
}

func nextID(state State) int {
	max := 0
	for _, t := range state {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func textOf(payload any) (string, error) {
	switch p := payload.(type) {
	case string:
		return p, nil
	case map[string]any:
		if text, ok := p["text"].(string); ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("todos: %s payload needs a text field, got %T", TypeAddTodo, payload)
}
