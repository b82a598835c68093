package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
	th "github.com/desertthunder/ytq/internal/testing"
)

func listing() models.ProbeResult {
	return models.NewListingResult("https://example.com/playlist", []models.PlaylistEntry{
		{URL: "https://example.com/1", Title: "One", Duration: "1:02"},
		{URL: "https://example.com/2", Title: "Two", Duration: "0:58"},
		{URL: "https://example.com/3", Title: "Three, with a comma"},
	}, time.Now())
}

func TestExporters(t *testing.T) {
	t.Run("FormatsToText", func(t *testing.T) {
		res := models.NewFormatsResult("https://example.com/v", "A Video", "4:20", []models.Format{
			{ID: "140", Ext: "m4a", ACodec: "mp4a.40.2", AudioOnly: true, Filesize: 3 << 20},
			{ID: "137", Ext: "mp4", Resolution: "1920x1080", FPS: 30, VCodec: "avc1"},
		}, time.Now())

		data, err := FormatsToText(res)
		if err != nil {
			t.Fatalf("FormatsToText failed: %v", err)
		}
		output := string(data)

		th.AssertContains(t, output, "Title: A Video")
		th.AssertContains(t, output, "Duration: 4:20")
		th.AssertContains(t, output, "Formats: 2")
		th.AssertContains(t, output, "audio only")
		th.AssertContains(t, output, "3.0 MiB")
		if strings.Index(output, "137") > strings.Index(output, "140") {
			t.Errorf("video formats should be listed first, got:\n%s", output)
		}
	})

	t.Run("ListingToText", func(t *testing.T) {
		data, err := ListingToText(listing())
		if err != nil {
			t.Fatalf("ListingToText failed: %v", err)
		}
		output := string(data)

		th.AssertContains(t, output, "Entries: 3")
		th.AssertContains(t, output, "Total duration: 2m 0s")
		th.AssertContains(t, output, "1. One [1:02]")
		th.AssertContains(t, output, "3. Three, with a comma\n")
	})

	t.Run("ListingToText without durations", func(t *testing.T) {
		res := models.NewListingResult("u", []models.PlaylistEntry{{URL: "a"}, {URL: "b"}}, time.Now())
		data, _ := ListingToText(res)
		if strings.Contains(string(data), "Total duration") {
			t.Errorf("no aggregate expected, got:\n%s", data)
		}
	})

	t.Run("ListingToMarkdown", func(t *testing.T) {
		data, err := ListingToMarkdown(listing())
		if err != nil {
			t.Fatalf("ListingToMarkdown failed: %v", err)
		}
		output := string(data)

		th.AssertContains(t, output, "# https://example.com/playlist")
		th.AssertContains(t, output, "**Entries**: 3")
		th.AssertContains(t, output, "2. [Two](https://example.com/2) [0:58]")
	})

	t.Run("ListingToCSV", func(t *testing.T) {
		data, err := ListingToCSV(listing())
		if err != nil {
			t.Fatalf("ListingToCSV failed: %v", err)
		}
		output := string(data)

		th.AssertContains(t, output, "Index,Title,Duration,URL")
		th.AssertContains(t, output, "1,One,1:02,https://example.com/1")
		th.AssertContains(t, output, `3,"Three, with a comma",,https://example.com/3`)
	})

	t.Run("CacheToText", func(t *testing.T) {
		now := time.Now()
		entries := []models.ProbeResult{
			models.NewFormatsResult("https://example.com/v", "V", "", []models.Format{{ID: "1"}}, now.Add(-2*time.Hour)),
			models.NewListingResult("https://example.com/p", listing().Entries, now),
		}

		data, err := CacheToText(entries, now)
		if err != nil {
			t.Fatalf("CacheToText failed: %v", err)
		}
		output := string(data)

		th.AssertContains(t, output, "1 formats")
		th.AssertContains(t, output, "3 entries")
		th.AssertContains(t, output, "2 hours ago")

		empty, _ := CacheToText(nil, now)
		th.AssertContains(t, string(empty), "Cache is empty")
	})

	t.Run("History", func(t *testing.T) {
		at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		records := []models.HistoryRecord{
			{ID: "a", URL: "https://example.com/a", Title: "Done", FormatID: "137", Status: models.StatusCompleted, FinishedAt: at},
			{ID: "b", URL: "https://example.com/b", Title: "Broken", Status: models.StatusFailed, Error: "exit status 1", FinishedAt: at},
		}

		text, err := HistoryToText(records)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}
		th.AssertContains(t, string(text), "Completed")
		th.AssertContains(t, string(text), "Broken (exit status 1)")

		csvData, err := ExportHistory(records, CSV)
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}
		th.AssertContains(t, string(csvData), "ID,URL,Title,Format,Status,Error,Output,Finished")
		th.AssertContains(t, string(csvData), "a,https://example.com/a,Done,137,Completed,,,2025-03-01T12:00:00Z")

		empty, _ := HistoryToText(nil)
		th.AssertContains(t, string(empty), "No downloads yet")
	})
}

func TestParseExport(t *testing.T) {
	tests := []struct {
		in   string
		want Export
	}{
		{"", Text},
		{"txt", Text},
		{"md", Markdown},
		{"markdown", Markdown},
		{"csv", CSV},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExport(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseExport(%q) = %q, %v", tt.in, got, err)
			}
		})
	}

	if _, err := ParseExport("pdf"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "playlist.md")
	data, _ := ExportListing(listing(), Markdown)

	if err := WriteExport(data, path); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	th.AssertFileExists(t, path)
	th.AssertContains(t, th.MustReadFile(t, path), "## Entries")
}
