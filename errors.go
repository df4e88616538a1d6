package batchstore

import "github.com/vango-dev/batchstore/internal/errors"

// Sentinel errors. Every error the decorator reports matches one of them
// with errors.Is; errors from the container or its reducer are returned
// unmodified.
var (
	// ErrInvalidArgument is returned for nil listeners, limiter factories,
	// observers and malformed actions.
	ErrInvalidArgument = errors.ErrInvalidArgument

	// ErrUnknownChannel is returned when a dispatch or clear names a channel
	// that was not declared in Config.Channels.
	ErrUnknownChannel = errors.ErrUnknownChannel

	// ErrIllegalReentrantCall is returned when Subscribe or an unsubscribe
	// runs while actions are being applied to the container.
	ErrIllegalReentrantCall = errors.ErrIllegalReentrantCall
)
