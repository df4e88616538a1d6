// Package limiter provides limiter factories for batchstore channels.
//
// A limiter receives the channel's flush trigger and returns the gated
// dispatch the channel calls on every enqueue. The limiters here differ only
// in when they fire the flush:
//
//   - Immediate flushes on every call.
//   - Throttle flushes on the leading edge, then at most once per interval
//     with everything queued in between (trailing edge).
//   - Debounce flushes once calls have stopped for the wait period, or after
//     MaxWait at the latest.
//   - Budget flushes immediately while fewer than max flushes happened in
//     the sliding window, and defers to the end of the window otherwise.
//   - Manual never fires on its own; tests call Trigger.
//
// Timer callbacks run on the timer's goroutine. Stores are single threaded,
// so timer-driven limiters should be given an executor that posts the
// callback back onto the store's goroutine:
//
//	l := loop.New(256)
//	go l.Run(ctx)
//	factory := limiter.Throttle(time.Second, limiter.WithExecutor(l.Post))
package limiter
