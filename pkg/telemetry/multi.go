package telemetry

import "github.com/vango-dev/batchstore"

type multi []batchstore.Instrument

// Multi fans every call out to each non-nil instrument in order.
func Multi(instruments ...batchstore.Instrument) batchstore.Instrument {
	m := make(multi, 0, len(instruments))
	for _, inst := range instruments {
		if inst != nil {
			m = append(m, inst)
		}
	}
	return m
}

func (m multi) StartDispatch(channel string, leaves int) func(error) {
	ends := make([]func(error), len(m))
	for i, inst := range m {
		ends[i] = inst.StartDispatch(channel, leaves)
	}
	return func(err error) {
		for _, end := range ends {
			end(err)
		}
	}
}

func (m multi) Enqueued(channel string, depth int) {
	for _, inst := range m {
		inst.Enqueued(channel, depth)
	}
}

func (m multi) Flushed(channel string, size int, err error) {
	for _, inst := range m {
		inst.Flushed(channel, size, err)
	}
}

func (m multi) Cleared(channel string, dropped int) {
	for _, inst := range m {
		inst.Cleared(channel, dropped)
	}
}
