package service

import (
	"context"
	"time"

	dErrors "namegate/pkg/domain-errors"
)

// txTimeout bounds how long one registry transaction may hold the write lock.
const txTimeout = 5 * time.Second

// txRunner serializes all state-changing registry operations. The protocol's
// invariants (one registration per counter value, name and escrow records in
// lock-step) hold because every mutation runs alone inside Run.
type txRunner struct {
	sem chan struct{}
}

func newTxRunner() *txRunner {
	return &txRunner{sem: make(chan struct{}, 1)}
}

// Run executes fn under the global write lock. Lock acquisition honors the
// caller's context so a stalled transaction cannot queue work forever.
func (t *txRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	select {
	case t.sem <- struct{}{}:
		defer func() { <-t.sem }()
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "registry transaction queue timed out")
	}
	return fn(ctx)
}
