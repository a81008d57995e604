// Package lock guards the reserve-then-create booking sequence per slot.
// A single node only needs the in-process locker; deployments running several
// API replicas against one shared store swap in the Redis implementation.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Locker runs fn while holding a mutual-exclusion lock for one doctor's slot.
type Locker interface {
	WithSlotLock(ctx context.Context, doctorID string, slot schedule.Slot, fn func(ctx context.Context) error) error
}

// SlotKey is the canonical lock key for a doctor's slot.
func SlotKey(doctorID string, slot schedule.Slot) string {
	return fmt.Sprintf("lock:slot:%s:%s:%s", doctorID, slot.Date, slot.Start)
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]*sync.Mutex
}

// NewLocalLocker returns an in-process per-slot locker. Hold times are
// bounded and short (no network calls inside the critical section), so
// waiting callers are never blocked for long.
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[string]*sync.Mutex)}
}

func (l *localLocker) WithSlotLock(ctx context.Context, doctorID string, slot schedule.Slot, fn func(ctx context.Context) error) error {
	key := SlotKey(doctorID, slot)

	l.mu.Lock()
	m, ok := l.slots[key]
	if !ok {
		m = &sync.Mutex{}
		l.slots[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
