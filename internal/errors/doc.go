// Package errors provides the error taxonomy shared by every batchstore package.
//
// Each failure the decorator can report wraps one of three sentinels:
//   - ErrInvalidArgument: a nil listener, limiter factory, observer or action
//   - ErrUnknownChannel: a dispatch or clear naming an undeclared channel
//   - ErrIllegalReentrantCall: registry mutation or dispatch while the
//     container is applying actions
//
// Errors raised by the underlying container are never wrapped here; they
// reach the caller unmodified.
//
// # Error Codes
//
// Every StoreError carries a registered code (e.g. "E010") mapping to a
// short message, a longer explanation and a documentation URL:
//
//	err := errors.Newf("E010", "invalid channel %q", "slow").
//	    WithSuggestion(`declare it with batchstore.WithChannel("slow", factory)`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E010: invalid channel "slow"
//	//
//	//   Hint: declare it with batchstore.WithChannel("slow", factory)
//	//
//	//   Learn more: https://vango.dev/docs/batchstore/errors/E010
package errors
