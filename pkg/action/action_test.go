package action

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/batchstore/internal/errors"
)

func TestBatch(t *testing.T) {
	a := New("A", nil)
	b := New("B", nil)

	single := Batch("slow", a)
	if _, ok := single.Payload.(Action); !ok {
		t.Errorf("Batch with one message: payload = %T, want Action", single.Payload)
	}
	if single.Channel != "slow" {
		t.Errorf("Channel = %q, want %q", single.Channel, "slow")
	}

	multi := Batch("", a, b)
	seq, ok := multi.Payload.(Sequence)
	if !ok || len(seq) != 2 {
		t.Fatalf("Batch with two messages: payload = %#v", multi.Payload)
	}
}

func TestLeavesOrder(t *testing.T) {
	m := Sequence{
		New("1", nil),
		Sequence{New("2", nil), Sequence{New("3", nil)}},
		Batch("ignored", New("4", nil), New("5", nil)),
		New("6", nil),
	}

	var got []string
	for _, leaf := range Leaves(m) {
		got = append(got, leaf.Type)
	}
	want := []string{"1", "2", "3", "4", "5", "6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
	if Count(m) != 6 {
		t.Errorf("Count() = %d, want 6", Count(m))
	}
	if Count(Sequence{}) != 0 {
		t.Error("Count(empty) should be 0")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"leaf", New("A", nil), false},
		{"empty sequence", Sequence{}, false},
		{"nested", Sequence{New("A", nil), Sequence{New("B", 1)}}, false},
		{"envelope", Batch("c", New("A", nil)), false},
		{"nil", nil, true},
		{"empty type", Action{}, true},
		{"nil in sequence", Sequence{New("A", nil), nil}, true},
		{"empty type deep", Sequence{Sequence{Action{}}}, true},
		{"envelope without payload", Envelope{Channel: "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
