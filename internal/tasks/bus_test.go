package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

func TestBus(t *testing.T) {
	t.Run("delivers in send order", func(t *testing.T) {
		b := NewBus()
		defer b.Close()

		const n = 1000
		for i := range n {
			if !b.Send(ProgressEvent("item", 1, models.Progress{Percent: float64(i)})) {
				t.Fatal("send on open bus should succeed")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := range n {
			e, err := b.Next(ctx)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if e.Progress.Percent != float64(i) {
				t.Fatalf("event %d out of order: got %v", i, e.Progress.Percent)
			}
		}
	})

	t.Run("per-producer order with concurrent producers", func(t *testing.T) {
		b := NewBus()
		defer b.Close()

		const producers, each = 4, 200
		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				for i := range each {
					b.Send(ProgressEvent(id, 1, models.Progress{Percent: float64(i)}))
				}
			}(string(rune('a' + p)))
		}
		wg.Wait()

		last := map[string]float64{}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for range producers * each {
			e, err := b.Next(ctx)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if prev, ok := last[e.ItemID]; ok && e.Progress.Percent <= prev {
				t.Fatalf("producer %s out of order: %v after %v", e.ItemID, e.Progress.Percent, prev)
			}
			last[e.ItemID] = e.Progress.Percent
		}
	})

	t.Run("send after close is dropped", func(t *testing.T) {
		b := NewBus()
		b.Close()
		b.Close()

		if b.Send(QuitEvent()) {
			t.Error("send after close should report false")
		}
		if _, err := b.Next(context.Background()); !errors.Is(err, shared.ErrChannelClosed) {
			t.Errorf("expected ErrChannelClosed, got %v", err)
		}
	})

	t.Run("Next honours context", func(t *testing.T) {
		b := NewBus()
		defer b.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := b.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestEvent(t *testing.T) {
	tc := []struct {
		e        Event
		terminal bool
	}{
		{e: ProgressEvent("a", 1, models.Progress{}), terminal: false},
		{e: URLValidatedEvent("x", nil), terminal: false},
		{e: QuitEvent(), terminal: false},
		{e: DownloadCompletedEvent("a", 1), terminal: true},
		{e: DownloadFailedEvent("a", 1, shared.ErrDownload), terminal: true},
		{e: FormatsFailedEvent("a", 1, shared.ErrProbe, false), terminal: true},
		{e: PlaylistFailedEvent("x", shared.ErrProbe), terminal: true},
	}
	for _, tt := range tc {
		t.Run(tt.e.Kind.String(), func(t *testing.T) {
			if got := tt.e.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestForward(t *testing.T) {
	t.Run("flushes the last snapshot", func(t *testing.T) {
		in := make(chan models.Progress, 100)
		for i := 1; i <= 100; i++ {
			in <- models.Progress{Percent: float64(i)}
		}
		close(in)

		var got []models.Progress
		Forward(in, 1, func(p models.Progress) { got = append(got, p) })

		if len(got) == 0 || got[len(got)-1].Percent != 100 {
			t.Fatalf("expected the final snapshot to be emitted, got %v", got)
		}
		if len(got) >= 100 {
			t.Errorf("expected snapshots to be coalesced, got %d", len(got))
		}
	})

	t.Run("empty channel emits nothing", func(t *testing.T) {
		in := make(chan models.Progress)
		close(in)
		called := false
		Forward(in, 10, func(models.Progress) { called = true })
		if called {
			t.Error("expected no emissions")
		}
	})
}
