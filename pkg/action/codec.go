package action

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/batchstore/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	fieldType    = "type"
	fieldKind    = "kind"
	fieldChannel = "channel"
	fieldPayload = "payload"
)

// Decode parses the wire form of a message.
//
// Objects with "kind":"BATCH" become Envelopes, other objects must carry a
// string "type" and become Actions whose Payload is a map of the remaining
// fields (nil when there are none). Arrays become Sequences.
func Decode(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Newf("E040", "empty message")
	}

	switch data[0] {
	case '[':
		var raw []jsoniter.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.New("E040").Wrap(err)
		}
		seq := make(Sequence, 0, len(raw))
		for i, r := range raw {
			m, err := Decode(r)
			if err != nil {
				return nil, errors.Newf("E040", "element %d", i).Wrap(err)
			}
			seq = append(seq, m)
		}
		return seq, nil
	case '{':
		return decodeObject(data)
	default:
		return nil, errors.Newf("E040", "expected an object or an array")
	}
}

func decodeObject(data []byte) (Message, error) {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.New("E040").Wrap(err)
	}

	if rawKind, ok := fields[fieldKind]; ok {
		var kind string
		if err := json.Unmarshal(rawKind, &kind); err == nil && kind == KindBatch {
			return decodeEnvelope(fields)
		}
	}

	rawType, ok := fields[fieldType]
	if !ok {
		return nil, errors.Newf("E040", "action is missing %q", fieldType)
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil || typ == "" {
		return nil, errors.Newf("E040", "action %q must be a non-empty string", fieldType)
	}
	delete(fields, fieldType)

	a := Action{Type: typ}
	if len(fields) > 0 {
		payload := make(map[string]any, len(fields))
		for k, v := range fields {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return nil, errors.Newf("E040", "field %q", k).Wrap(err)
			}
			payload[k] = val
		}
		a.Payload = payload
	}
	return a, nil
}

func decodeEnvelope(fields map[string]jsoniter.RawMessage) (Message, error) {
	var env Envelope
	if rawChannel, ok := fields[fieldChannel]; ok {
		if err := json.Unmarshal(rawChannel, &env.Channel); err != nil {
			return nil, errors.Newf("E040", "envelope %q must be a string", fieldChannel).Wrap(err)
		}
	}

	rawPayload, ok := fields[fieldPayload]
	if !ok {
		return nil, errors.Newf("E040", "envelope is missing %q", fieldPayload)
	}
	payload, err := Decode(rawPayload)
	if err != nil {
		return nil, err
	}
	env.Payload = payload
	return env, nil
}

// Encode renders m in its wire form. Map payloads are merged into the action
// object; any other payload is stored under "payload".
func Encode(m Message) ([]byte, error) {
	v, err := wireValue(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func wireValue(m Message) (any, error) {
	switch v := m.(type) {
	case Action:
		obj := map[string]any{}
		switch p := v.Payload.(type) {
		case nil:
		case map[string]any:
			for k, val := range p {
				obj[k] = val
			}
		default:
			obj[fieldPayload] = p
		}
		obj[fieldType] = v.Type
		return obj, nil
	case Sequence:
		out := make([]any, 0, len(v))
		for _, child := range v {
			w, err := wireValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, w)
		}
		return out, nil
	case Envelope:
		payload, err := wireValue(v.Payload)
		if err != nil {
			return nil, err
		}
		obj := map[string]any{fieldKind: KindBatch, fieldPayload: payload}
		if v.Channel != "" {
			obj[fieldChannel] = v.Channel
		}
		return obj, nil
	default:
		return nil, errors.Newf("E004", "cannot encode %T", m)
	}
}
