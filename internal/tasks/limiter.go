package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/ytq/internal/shared"
	"golang.org/x/sync/semaphore"
)

// DefaultLimit is the number of probe and download tasks allowed to run at once.
const DefaultLimit = 8

// Limiter bounds the number of simultaneously running background tasks.
type Limiter struct {
	sem   *semaphore.Weighted
	size  int
	inUse atomic.Int64
}

// NewLimiter creates a limiter with n slots, falling back to [DefaultLimit] for n < 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = DefaultLimit
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNoPermit, err)
	}
	return l.permit(), nil
}

// TryAcquire takes a slot only if one is free right now.
func (l *Limiter) TryAcquire() (*Permit, bool) {
	if !l.sem.TryAcquire(1) {
		return nil, false
	}
	return l.permit(), true
}

func (l *Limiter) permit() *Permit {
	l.inUse.Add(1)
	return &Permit{l: l}
}

// Size returns the total number of slots.
func (l *Limiter) Size() int { return l.size }

// InUse returns the number of slots currently held.
func (l *Limiter) InUse() int { return int(l.inUse.Load()) }

// Permit is one held slot of a [Limiter].
type Permit struct {
	l    *Limiter
	once sync.Once
}

// Release returns the slot. Calls after the first are no-ops.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.l.inUse.Add(-1)
		p.l.sem.Release(1)
	})
}
