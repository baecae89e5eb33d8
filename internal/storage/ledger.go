// Package storage owns the shared ledger state behind a single lock. Every
// mutation in the system flows through one Ledger.Execute call, which is the
// serialization point that keeps balances consistent: validation runs all
// checks and stages a plan without touching state, and only a validation
// that passes in full reaches the infallible apply step. A failed operation
// therefore leaves no partial state behind.
package storage

import (
	"context"
	"sync"
)

// Ledger serializes all access to the State. Writers queue on the write
// lock; readers proceed concurrently.
type Ledger struct {
	mu    sync.RWMutex
	state *State
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{state: newState()}
}

// Execute runs one atomic operation against the ledger. validate must check
// every precondition and may stage a plan in closure variables, but must not
// mutate state; apply performs the staged mutation and must not fail. When
// validate returns an error, apply never runs and the state is untouched.
func (l *Ledger) Execute(ctx context.Context, validate func(*State) error, apply func(*State)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if validate != nil {
		if err := validate(l.state); err != nil {
			return err
		}
	}
	if apply != nil {
		apply(l.state)
	}
	return nil
}

// View runs a side-effect-free query under the read lock. fn must not mutate
// state and must copy out anything it needs to return.
func (l *Ledger) View(ctx context.Context, fn func(*State)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	fn(l.state)
	return nil
}
