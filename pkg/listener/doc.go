// Package listener implements the observer registry every batchstore
// notification goes through.
//
// The registry keeps two slots: current, the snapshot iterated by the
// notification round in progress, and next, the working set that Subscribe
// and Unsubscribe mutate. next is cloned from current lazily, on the first
// mutation after a round started, so listeners may subscribe or unsubscribe
// from inside a callback without affecting the round being delivered.
//
// Guard is the reentrancy flag shared with the batch unwrapper. While it is
// active (actions are being applied by the container) the registry rejects
// mutation with ErrIllegalReentrantCall.
package listener
