// Package ledger implements the consumable token balance charged per
// successfully completed shot and per metered action (background removal,
// video production).
package ledger

import "sync"

// Ledger holds a non-negative integer token balance. All mutation goes
// through Debit and Credit; Reserve is a pre-flight check that never
// changes the balance. Safe for concurrent use: the orchestrator's run
// loop, analysis callbacks, and top-up handlers may all touch it.
type Ledger struct {
	mu      sync.Mutex
	balance int
}

// New returns a ledger seeded with an initial balance. Negative initial
// balances are clamped to zero.
func New(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{balance: initial}
}

// Balance returns the current balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Reserve reports whether the balance covers n tokens. The balance is
// never mutated, whether the reservation succeeds or fails: a reservation
// is a gate, not a charge.
func (l *Ledger) Reserve(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= n
}

// Debit subtracts n tokens, clamped at zero. Callers are expected to have
// performed a Reserve-equivalent check; the clamp is a floor so the
// balance never goes negative even under racing flows.
func (l *Ledger) Debit(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance -= n
	if l.balance < 0 {
		l.balance = 0
	}
}

// Credit adds n tokens unconditionally. Used for refunds, top-ups, and
// plan-upgrade grants.
func (l *Ledger) Credit(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += n
}
