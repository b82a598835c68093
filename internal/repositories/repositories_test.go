package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	tu "github.com/desertthunder/ytq/internal/testing"
)

var (
	_ models.Repository[models.ProbeResult]   = (*ProbeCacheRepository)(nil)
	_ models.Repository[models.HistoryRecord] = (*HistoryRepository)(nil)
)

func TestProbeCacheRepository(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	formats := []models.Format{{ID: "22", Ext: "mp4", Resolution: "1280x720"}, {ID: "140", Ext: "m4a", AudioOnly: true}}

	t.Run("Put and Get", func(t *testing.T) {
		repo := NewProbeCacheRepository(tu.MustOpenDB(t))
		want := models.NewFormatsResult("https://example.com/v", "Title", "3:33", formats, base)

		if err := repo.Put(want); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := repo.Get(want.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Title != "Title" || got.Duration != "3:33" || len(got.Formats) != 2 || !got.Formats[1].AudioOnly {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if !got.CapturedAt.Equal(base) {
			t.Errorf("captured at = %v, want %v", got.CapturedAt, base)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		repo := NewProbeCacheRepository(tu.MustOpenDB(t))
		url := "https://example.com/list"
		_ = repo.Put(models.NewFormatsResult(url, "Old", "", formats, base))
		entries := []models.PlaylistEntry{{URL: "a", Title: "A"}, {URL: "b", Title: "B"}}
		if err := repo.Put(models.NewListingResult(url, entries, base.Add(time.Hour))); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := repo.Get(url)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.IsPlaylist() || len(got.Entries) != 2 {
			t.Errorf("expected overwritten listing, got %+v", got)
		}
		if n, _ := Count(repo.db, "probe_cache"); n != 1 {
			t.Errorf("expected one row, got %d", n)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewProbeCacheRepository(tu.MustOpenDB(t))
		if _, err := repo.Get("https://example.com/missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put rejects invalid results", func(t *testing.T) {
		repo := NewProbeCacheRepository(tu.MustOpenDB(t))
		if err := repo.Put(models.ProbeResult{}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("List skips corrupt rows", func(t *testing.T) {
		db := tu.MustOpenDB(t)
		repo := NewProbeCacheRepository(db)
		_ = repo.Put(models.NewFormatsResult("https://example.com/ok", "OK", "", formats, base))
		if _, err := db.Exec(`INSERT INTO probe_cache (url, kind, payload, captured_at) VALUES ('bad', 'single', '{oops', 0)`); err != nil {
			t.Fatalf("failed to insert corrupt row: %v", err)
		}

		got, err := repo.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 1 || got[0].URL != "https://example.com/ok" {
			t.Errorf("expected only the valid row, got %+v", got)
		}
	})

	t.Run("Delete Clear and Prune", func(t *testing.T) {
		repo := NewProbeCacheRepository(tu.MustOpenDB(t))
		for i, url := range []string{"https://a", "https://b", "https://c"} {
			_ = repo.Put(models.NewFormatsResult(url, "", "", formats, base.Add(time.Duration(i)*time.Hour)))
		}

		if err := repo.Delete("https://a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete("https://a"); err != nil {
			t.Errorf("deleting a missing row should not fail: %v", err)
		}

		removed, err := repo.Prune(base.Add(2 * time.Hour))
		if err != nil {
			t.Fatalf("Prune: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned row, got %d", removed)
		}

		list, _ := repo.List(0)
		if len(list) != 1 || list[0].URL != "https://c" {
			t.Errorf("expected only https://c, got %+v", list)
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if list, _ := repo.List(0); len(list) != 0 {
			t.Errorf("expected empty cache, got %d rows", len(list))
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	record := func(id string, offset time.Duration, status models.Status) models.HistoryRecord {
		return models.HistoryRecord{
			ID: id, URL: "https://example.com/" + id, Title: id, FormatID: "22",
			OutputDir: "/tmp", Status: status, FinishedAt: base.Add(offset),
		}
	}

	t.Run("Put and Get", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := record("one", 0, models.StatusFailed)
		rec.Error = "exit status 1"

		if err := repo.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
		got, err := repo.Get("one")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != models.StatusFailed || got.Error != "exit status 1" || !got.FinishedAt.Equal(base) {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("rejects non-terminal records", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		if err := repo.Put(record("x", 0, models.StatusDownloading)); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("List newest first with limit", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		_ = repo.Put(record("old", 0, models.StatusCompleted))
		_ = repo.Put(record("new", 2*time.Hour, models.StatusCancelled))
		_ = repo.Put(record("mid", time.Hour, models.StatusCompleted))

		got, err := repo.List(2)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
			t.Errorf("unexpected order %+v", got)
		}

		if err := repo.Delete("new"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get("new"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
