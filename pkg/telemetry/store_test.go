package telemetry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/batchstore"
	"github.com/vango-dev/batchstore/pkg/channel"
	"github.com/vango-dev/batchstore/pkg/container"
	"github.com/vango-dev/batchstore/pkg/limiter"
	"github.com/vango-dev/batchstore/pkg/todos"
)

func TestUndeclaredChannelsCreateNoSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	base, err := container.New(todos.Reducer, todos.State{})
	if err != nil {
		t.Fatal(err)
	}
	s, err := batchstore.New[todos.State](base, batchstore.Config{
		Channels:   map[string]channel.LimiterFactory{"slow": limiter.NewManual().Factory()},
		Instrument: NewMetrics(WithRegistry(reg)),
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		_, err := s.DispatchChannel(fmt.Sprintf("bogus-%d", i), todos.AddTodo("x"))
		if !errors.Is(err, batchstore.ErrUnknownChannel) {
			t.Fatalf("DispatchChannel() error = %v, want ErrUnknownChannel", err)
		}
	}
	if _, err := s.DispatchChannel("slow", todos.AddTodo("y")); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "channel" && lp.GetValue() != "slow" {
					t.Errorf("%s has series for channel %q", fam.GetName(), lp.GetValue())
				}
			}
		}
	}
}
