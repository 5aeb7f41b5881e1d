package reconciliation

import (
	"sync"

	"github.com/google/uuid"
)

// paymentLocks hands out one mutex per payment ID so that allocation
// commits against the same payment serialize while commits against
// different payments run in parallel. The map grows with the set of
// payments touched by a process lifetime, which is bounded by batch scale.
type paymentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newPaymentLocks() *paymentLocks {
	return &paymentLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// acquire blocks until the payment's lock is held and returns the unlock
// function.
func (l *paymentLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
