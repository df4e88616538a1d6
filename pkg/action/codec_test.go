package action

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/batchstore/internal/errors"
)

func TestDecodeAction(t *testing.T) {
	m, err := Decode([]byte(` {"type":"ADD_TODO","text":"Hello"} `))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := Action{Type: "ADD_TODO", Payload: map[string]any{"text": "Hello"}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("Decode() = %#v, want %#v", m, want)
	}

	bare, err := Decode([]byte(`{"type":"PING"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if a := bare.(Action); a.Payload != nil {
		t.Errorf("Payload = %#v, want nil", a.Payload)
	}
}

func TestDecodeSequence(t *testing.T) {
	m, err := Decode([]byte(`[{"type":"A"},[{"type":"B"}]]`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	seq, ok := m.(Sequence)
	if !ok || len(seq) != 2 {
		t.Fatalf("Decode() = %#v", m)
	}
	if _, ok := seq[1].(Sequence); !ok {
		t.Errorf("nested element = %T, want Sequence", seq[1])
	}
}

func TestDecodeEnvelope(t *testing.T) {
	m, err := Decode([]byte(`{"kind":"BATCH","channel":"slow","payload":[{"type":"A"},{"type":"B"}]}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	env, ok := m.(Envelope)
	if !ok {
		t.Fatalf("Decode() = %T, want Envelope", m)
	}
	if env.Channel != "slow" {
		t.Errorf("Channel = %q, want slow", env.Channel)
	}
	if Count(env) != 2 {
		t.Errorf("Count = %d, want 2", Count(env))
	}
}

func TestDecodeErrors(t *testing.T) {
	inputs := map[string]string{
		"empty":            ``,
		"scalar":           `42`,
		"missing type":     `{"text":"x"}`,
		"empty type":       `{"type":""}`,
		"numeric type":     `{"type":1}`,
		"bad json":         `{"type":`,
		"envelope no body": `{"kind":"BATCH","channel":"c"}`,
		"bad element":      `[{"type":"A"}, 3]`,
		"bad channel":      `{"kind":"BATCH","channel":5,"payload":{"type":"A"}}`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	original := Batch("fast",
		New("ADD_TODO", map[string]any{"text": "A"}),
		Sequence{New("ADD_TODO", map[string]any{"text": "B"})},
	)

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("round trip = %#v, want %#v", decoded, original)
	}
}

func TestEncodeScalarPayload(t *testing.T) {
	data, err := Encode(New("SET", "value"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := Action{Type: "SET", Payload: map[string]any{"payload": "value"}}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("decoded = %#v, want %#v", decoded, want)
	}
}
