package action

import (
	"github.com/vango-dev/batchstore/internal/errors"
)

// KindBatch is the reserved kind tag of an Envelope on the wire.
const KindBatch = "BATCH"

// Message is anything that can be dispatched: an Action, a Sequence or an Envelope.
type Message interface {
	message()
}

// Action is a leaf action.
type Action struct {
	Type    string
	Payload any
}

// Sequence is an ordered batch of messages. Sequences may nest.
type Sequence []Message

// Envelope wraps a payload for routing. Channel is optional.
type Envelope struct {
	Channel string
	Payload Message
}

func (Action) message()   {}
func (Sequence) message() {}
func (Envelope) message() {}

// New returns an Action with the given type and payload.
func New(typ string, payload any) Action {
	return Action{Type: typ, Payload: payload}
}

// Batch builds an Envelope for the given channel. A single message becomes
// the payload as is; several become a Sequence.
func Batch(channel string, msgs ...Message) Envelope {
	if len(msgs) == 1 {
		return Envelope{Channel: channel, Payload: msgs[0]}
	}
	return Envelope{Channel: channel, Payload: Sequence(msgs)}
}

// Leaves flattens m depth-first, left to right. Envelopes contribute their payload.
func Leaves(m Message) []Action {
	var out []Action
	walk(m, func(a Action) { out = append(out, a) })
	return out
}

// Count returns the number of leaf actions in m.
func Count(m Message) int {
	n := 0
	walk(m, func(Action) { n++ })
	return n
}

func walk(m Message, fn func(Action)) {
	switch v := m.(type) {
	case Action:
		fn(v)
	case Sequence:
		for _, child := range v {
			walk(child, fn)
		}
	case Envelope:
		walk(v.Payload, fn)
	}
}

// Validate reports whether m is well formed: no nil messages and no empty types.
func Validate(m Message) error {
	switch v := m.(type) {
	case nil:
		return errors.Newf("E004", "message must not be nil")
	case Action:
		if v.Type == "" {
			return errors.Newf("E004", "action type must not be empty")
		}
	case Sequence:
		for i, child := range v {
			if err := Validate(child); err != nil {
				return errors.Newf("E004", "sequence element %d", i).Wrap(err)
			}
		}
	case Envelope:
		if v.Payload == nil {
			return errors.Newf("E004", "envelope payload must not be nil")
		}
		return Validate(v.Payload)
	}
	return nil
}
