// Package guard implements the registry's optimistic ordering guard: a single
// monotonically increasing counter used to detect that a caller's view of
// registry state was invalidated by an intervening registration.
//
// The protocol is a versioned read: callers read Current, submit that value
// with their registration, and CompareAndIncrement rejects with an
// ordering-conflict error when the live counter has moved. At most one
// registration succeeds per observed value, which turns reordering races into
// a detectable retry instead of a silent conflict.
package guard

import (
	"context"

	dErrors "namegate/pkg/domain-errors"
)

// Guard is the ordering counter. Implementations must make
// CompareAndIncrement atomic with respect to concurrent callers.
type Guard interface {
	// Current returns the live counter value.
	Current(ctx context.Context) (uint64, error)

	// CompareAndIncrement increments the counter by exactly 1 if the live
	// value still equals observed, and fails with CodeOrderingConflict
	// otherwise.
	CompareAndIncrement(ctx context.Context, observed uint64) error
}

// ErrConflict is returned when the observed counter is stale at execution
// time: some other registration finalized in between.
var ErrConflict = dErrors.New(dErrors.CodeOrderingConflict, "observed counter is stale")
