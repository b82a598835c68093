package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/shared"
)

func TestLimiter(t *testing.T) {
	t.Run("N+1 blocking acquires", func(t *testing.T) {
		const n = 3
		l := NewLimiter(n)
		ctx := context.Background()

		permits := make([]*Permit, 0, n)
		for range n {
			p, err := l.Acquire(ctx)
			if err != nil {
				t.Fatalf("acquire should not fail: %v", err)
			}
			permits = append(permits, p)
		}

		acquired := make(chan *Permit)
		go func() {
			p, err := l.Acquire(ctx)
			if err != nil {
				t.Errorf("extra acquire failed: %v", err)
				close(acquired)
				return
			}
			acquired <- p
		}()

		select {
		case <-acquired:
			t.Fatal("extra acquire should block while all permits are held")
		case <-time.After(50 * time.Millisecond):
		}

		permits[0].Release()

		select {
		case p := <-acquired:
			p.Release()
		case <-time.After(time.Second):
			t.Fatal("extra acquire should proceed after a release")
		}
	})

	t.Run("TryAcquire when exhausted", func(t *testing.T) {
		l := NewLimiter(1)
		p, ok := l.TryAcquire()
		if !ok {
			t.Fatal("first try should succeed")
		}

		start := time.Now()
		if _, ok := l.TryAcquire(); ok {
			t.Error("try should fail when no permit is free")
		}
		if time.Since(start) > 50*time.Millisecond {
			t.Error("try should not block")
		}

		p.Release()
		if p2, ok := l.TryAcquire(); !ok {
			t.Error("try should succeed after release")
		} else {
			p2.Release()
		}
	})

	t.Run("Release is idempotent", func(t *testing.T) {
		l := NewLimiter(2)
		p, _ := l.TryAcquire()
		p.Release()
		p.Release()
		if l.InUse() != 0 {
			t.Errorf("expected 0 in use, got %d", l.InUse())
		}

		a, _ := l.TryAcquire()
		b, _ := l.TryAcquire()
		if _, ok := l.TryAcquire(); ok {
			t.Error("double release must not create extra capacity")
		}
		a.Release()
		b.Release()
	})

	t.Run("Acquire honours context", func(t *testing.T) {
		l := NewLimiter(1)
		p, _ := l.TryAcquire()
		defer p.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx); !errors.Is(err, shared.ErrNoPermit) {
			t.Errorf("expected ErrNoPermit, got %v", err)
		}
	})

	t.Run("default size", func(t *testing.T) {
		if got := NewLimiter(0).Size(); got != DefaultLimit {
			t.Errorf("expected default %d, got %d", DefaultLimit, got)
		}
	})
}
