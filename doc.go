// Package batchstore decorates a state container with batched dispatch and
// rate-limited delivery channels.
//
// A Store sits between application code and a container.Container. It lets
// callers dispatch one action or an ordered batch in a single call, and it
// notifies its subscribers exactly once per call, after every action in the
// batch has been applied:
//
//	base, _ := container.New(todos.Reducer, todos.State{})
//	store, _ := batchstore.New(base, batchstore.Config{})
//
//	store.Subscribe(func() { render(store.GetState()) })
//	store.Dispatch(action.Sequence{todos.AddTodo("Hello"), todos.AddTodo("World")})
//	// render runs once
//
// # Channels
//
// Named channels route actions through a caller-supplied limiter before they
// reach the container. The limiter receives a flush trigger and decides when
// to fire it; a flush delivers everything queued on the channel as a single
// batch:
//
//	store, _ := batchstore.New(base, batchstore.Config{
//	    Channels: map[string]channel.LimiterFactory{
//	        "search": limiter.Debounce(300 * time.Millisecond),
//	    },
//	})
//
//	store.DispatchChannel("search", setQuery("go"))
//	store.Dispatch(action.Batch("search", setQuery("gop"))) // envelope form
//
// An explicit channel argument wins over the channel carried by an envelope.
// Pending actions can be discarded with ClearActionQueue.
//
// # Threading
//
// A Store is not safe for concurrent use. All calls, including flushes fired
// by limiter timers, must run on one goroutine; see package loop for an
// executor that serializes them.
package batchstore
