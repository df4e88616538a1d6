package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T, size int) *Loop {
	t.Helper()
	l := New(size)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l
}

func TestDoRunsInOrder(t *testing.T) {
	l := startLoop(t, 16)
	var got []int

	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	err := l.Do(context.Background(), func() error {
		got = append(got, 5)
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("got = %v, want 0..5 in order", got)
		}
	}
	if len(got) != 6 {
		t.Errorf("len(got) = %d, want 6", len(got))
	}
}

func TestDoReturnsError(t *testing.T) {
	l := startLoop(t, 4)
	boom := errors.New("boom")

	if err := l.Do(context.Background(), func() error { return boom }); err != boom {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}
}

func TestDoSerializesConcurrentCallers(t *testing.T) {
	l := startLoop(t, 64)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Do(context.Background(), func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var final int
	l.Do(context.Background(), func() error {
		final = counter
		return nil
	})
	if final != 50 {
		t.Errorf("counter = %d, want 50", final)
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l := startLoop(t, 4)

	l.Post(func() { panic("listener exploded") })
	ran := false
	if err := l.Do(context.Background(), func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran {
		t.Error("loop stopped after a panic")
	}
}

func TestClosedLoop(t *testing.T) {
	l := New(4)
	l.Close()
	l.Close()

	if err := l.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() error = %v, want ErrClosed", err)
	}
	l.Post(func() { t.Error("posted function ran on a closed loop") })

	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	l := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return")
	}
	<-l.Done()
}

func TestDoHonorsContext(t *testing.T) {
	l := New(1) // never run
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want DeadlineExceeded", err)
	}
}

func TestPostQueueFull(t *testing.T) {
	l := New(1)
	l.Post(func() {})
	l.Post(func() { t.Error("overflowing function should be dropped") })

	if len(l.queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(l.queue))
	}
}

func TestDoPanicBecomesError(t *testing.T) {
	l := startLoop(t, 4)

	err := l.Do(context.Background(), func() error { panic("reducer exploded") })
	if err == nil {
		t.Fatal("Do() error = nil, want the panic as an error")
	}
	if err := l.Do(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("Do() after panic error = %v", err)
	}
}
