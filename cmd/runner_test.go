package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/desertthunder/ytq/internal/shared"
	tu "github.com/desertthunder/ytq/internal/testing"
	"github.com/urfave/cli/v3"
)

// writeConfig writes a config that keeps the cache and downloads inside a temp dir.
func writeConfig(t *testing.T) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "config.toml")

	data := fmt.Sprintf(`
[downloads]
output_dir = %q
max_concurrent = 2

[probe]
binary = "yt-dlp"
detect_timeout_seconds = 1

[cache]
path = %q
ttl_hours = 1

[log]
level = "error"
`, filepath.Join(dir, "out"), filepath.Join(dir, "cache.db"))

	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path, dir
}

func newTestRunner(client services.Client) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		Client: client,
		Logger: shared.NopLogger(),
		Output: output,
	}), output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "ytq", Commands: r.register()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.Run(ctx, append([]string{"ytq"}, args...))
}

func videoClient() *tu.MockClient {
	return &tu.MockClient{
		MetadataFn: func(context.Context, string) (services.Metadata, error) {
			return services.Metadata{Title: "A Video", Duration: "3:00"}, nil
		},
		ListingFn: func(context.Context, string) ([]models.PlaylistEntry, error) {
			return nil, shared.ErrProbe
		},
		FormatsFn: tu.FormatsFor("A Video",
			models.Format{ID: "18", Ext: "mp4", Resolution: "640x360", VCodec: "avc1", ACodec: "mp4a"},
			models.Format{ID: "137", Ext: "mp4", Resolution: "1920x1080", VCodec: "avc1", ACodec: "none"},
			models.Format{ID: "140", Ext: "m4a", ACodec: "mp4a", AudioOnly: true},
		),
		DownloadFn: func(ctx context.Context, req services.DownloadRequest, progress chan<- models.Progress) error {
			for _, p := range []float64{25, 50, 100} {
				select {
				case progress <- models.Progress{Percent: p}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		},
	}
}

func playlistMock() *tu.MockClient {
	return &tu.MockClient{
		MetadataFn: func(context.Context, string) (services.Metadata, error) {
			return services.Metadata{}, shared.ErrProbe
		},
		ListingFn: func(context.Context, string) ([]models.PlaylistEntry, error) {
			return []models.PlaylistEntry{
				{URL: "https://example.com/1", Title: "One", Duration: "1:00"},
				{URL: "https://example.com/2", Title: "Two", Duration: "2:00"},
			}, nil
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := &tu.MockClient{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Client: client,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.services() != client {
				t.Error("expected client to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if _, ok := runner.services().(*services.YTDLP); !ok {
				t.Errorf("expected yt-dlp client, got %T", runner.services())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := newTestRunner(nil)
		names := []string{}
		for _, c := range runner.register() {
			names = append(names, c.Name)
		}
		want := []string{"setup", "probe", "get", "cache", "history", "tui"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, names)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		tests := []struct {
			name   string
			pretty bool
			want   string
		}{
			{name: "compact", pretty: false, want: "{\"id\":\"18\"}\n"},
			{name: "pretty", pretty: true, want: "{\n  \"id\": \"18\"\n}\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner, output := newTestRunner(nil)
				if err := runner.writeJSON(map[string]string{"id": "18"}, tt.pretty); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if output.String() != tt.want {
					t.Errorf("expected %q, got %q", tt.want, output.String())
				}
			})
		}

		t.Run("unmarshalable value", func(t *testing.T) {
			runner, _ := newTestRunner(nil)
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		runner, output := newTestRunner(nil)
		_ = runner.writePlain("%d of %d\n", 1, 2)
		if output.String() != "1 of 2\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file keeps defaults", func(t *testing.T) {
			dir := t.TempDir()
			runner, _ := newTestRunner(nil)
			runner.config.Cache.Path = filepath.Join(dir, "cache.db")
			before := runner.config
			if err := run(t, runner, "cache", "list", "--config", filepath.Join(dir, "missing.toml")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if runner.config != before {
				t.Error("expected config to be unchanged")
			}
		})

		t.Run("file overrides defaults", func(t *testing.T) {
			path, dir := writeConfig(t)
			runner, _ := newTestRunner(nil)
			if err := run(t, runner, "cache", "list", "--config", path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if runner.config.Downloads.MaxConcurrent != 2 {
				t.Errorf("expected max_concurrent 2, got %d", runner.config.Downloads.MaxConcurrent)
			}
			if runner.config.ResolveCachePath() != filepath.Join(dir, "cache.db") {
				t.Errorf("unexpected cache path %s", runner.config.ResolveCachePath())
			}
		})

		t.Run("invalid file is an error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			_ = os.WriteFile(path, []byte("[downloads]\nmax_concurrent = 0\n"), 0o644)
			runner, _ := newTestRunner(nil)
			if err := run(t, runner, "cache", "list", "--config", path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("config writes defaults once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		runner, output := newTestRunner(nil)

		if err := run(t, runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
		tu.AssertContains(t, output.String(), path)

		if err := run(t, runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected an error when the file exists")
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		path, dir := writeConfig(t)
		runner, output := newTestRunner(nil)

		if err := run(t, runner, "setup", "database", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "cache.db"))
		tu.AssertContains(t, output.String(), "0 cached, 0 downloads")
	})
}

func TestProbe(t *testing.T) {
	t.Run("single item prints formats and caches them", func(t *testing.T) {
		path, _ := writeConfig(t)
		client := videoClient()
		runner, output := newTestRunner(client)

		if err := run(t, runner, "probe", "--config", path, "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "A Video")
		tu.AssertContains(t, output.String(), "1920x1080")
		tu.AssertContains(t, output.String(), "audio only")

		output.Reset()
		if err := run(t, runner, "probe", "--config", path, "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := client.FormatsCalls.Load(); n != 1 {
			t.Errorf("expected the second probe to hit the cache, got %d calls", n)
		}

		if err := run(t, runner, "probe", "--config", path, "--refresh", "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := client.FormatsCalls.Load(); n != 2 {
			t.Errorf("expected --refresh to probe again, got %d calls", n)
		}
	})

	t.Run("json output", func(t *testing.T) {
		path, _ := writeConfig(t)
		runner, output := newTestRunner(videoClient())

		if err := run(t, runner, "probe", "--config", path, "--json", "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), `"format_id": "137"`)
		tu.AssertContains(t, output.String(), `"kind": "single"`)
	})

	t.Run("playlist exported to csv file", func(t *testing.T) {
		path, dir := writeConfig(t)
		runner, output := newTestRunner(playlistMock())
		out := filepath.Join(dir, "exports", "list.csv")

		err := run(t, runner, "probe", "--config", path, "--export", "csv", "--output", out, "https://example.com/list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), out)

		data := tu.MustReadFile(t, out)
		tu.AssertContains(t, data, "Index,Title,Duration,URL")
		tu.AssertContains(t, data, "2,Two,2:00,https://example.com/2")
	})

	t.Run("errors", func(t *testing.T) {
		path, _ := writeConfig(t)
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "missing url", args: []string{"probe", "--config", path}, want: shared.ErrMissingArgument},
			{name: "invalid url", args: []string{"probe", "--config", path, "not a url"}, want: shared.ErrInvalidURL},
			{name: "unknown export", args: []string{"probe", "--config", path, "--export", "xml", "https://example.com/x"}, want: shared.ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner, _ := newTestRunner(videoClient())
				if err := run(t, runner, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		t.Run("probe failure", func(t *testing.T) {
			runner, _ := newTestRunner(&tu.MockClient{})
			if err := run(t, runner, "probe", "--config", path, "https://example.com/x"); !errors.Is(err, shared.ErrProbe) {
				t.Errorf("expected ErrProbe, got %v", err)
			}
		})
	})
}

func TestGet(t *testing.T) {
	t.Run("downloads the best format and records history", func(t *testing.T) {
		path, dir := writeConfig(t)
		client := videoClient()
		runner, output := newTestRunner(client)

		if err := run(t, runner, "get", "--config", path, "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "✓ A Video")
		tu.AssertContains(t, output.String(), "Downloaded 1 of 1")
		if n := client.DownloadCalls.Load(); n != 1 {
			t.Errorf("expected 1 download, got %d", n)
		}

		db, err := shared.OpenMigrated(filepath.Join(dir, "cache.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		tu.Eventually(t, 2*time.Second, func() bool {
			n, _ := repositories.Count(db, "download_history")
			return n == 1
		}, "history was not recorded")

		records, _ := repositories.NewHistoryRepository(db).List(0)
		if records[0].FormatID != "137" || records[0].Status != models.StatusCompleted {
			t.Errorf("unexpected record %+v", records[0])
		}
	})

	t.Run("format flag picks the format", func(t *testing.T) {
		path, _ := writeConfig(t)
		client := videoClient()
		var got string
		download := client.DownloadFn
		client.DownloadFn = func(ctx context.Context, req services.DownloadRequest, p chan<- models.Progress) error {
			got = req.Format.ID
			return download(ctx, req, p)
		}
		runner, _ := newTestRunner(client)

		if err := run(t, runner, "get", "--config", path, "--format", "18", "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "18" {
			t.Errorf("expected format 18, got %q", got)
		}
	})

	t.Run("audio flag picks audio only", func(t *testing.T) {
		path, dir := writeConfig(t)
		client := videoClient()
		var req services.DownloadRequest
		download := client.DownloadFn
		client.DownloadFn = func(ctx context.Context, r services.DownloadRequest, p chan<- models.Progress) error {
			req = r
			return download(ctx, r, p)
		}
		runner, _ := newTestRunner(client)

		if err := run(t, runner, "get", "--config", path, "--audio", "--dir", filepath.Join(dir, "music"), "https://example.com/watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Format.ID != "140" {
			t.Errorf("expected format 140, got %q", req.Format.ID)
		}
		if req.OutputDir != filepath.Join(dir, "music") {
			t.Errorf("expected --dir to override output dir, got %s", req.OutputDir)
		}
	})

	t.Run("unknown format fails", func(t *testing.T) {
		path, _ := writeConfig(t)
		client := videoClient()
		runner, output := newTestRunner(client)

		err := run(t, runner, "get", "--config", path, "--format", "999", "https://example.com/watch")
		if !errors.Is(err, shared.ErrDownload) {
			t.Errorf("expected ErrDownload, got %v", err)
		}
		tu.AssertContains(t, output.String(), `format "999" not available`)
		if n := client.DownloadCalls.Load(); n != 0 {
			t.Errorf("expected no downloads, got %d", n)
		}
	})

	t.Run("download failure", func(t *testing.T) {
		path, _ := writeConfig(t)
		client := videoClient()
		client.DownloadFn = func(context.Context, services.DownloadRequest, chan<- models.Progress) error {
			return fmt.Errorf("%w: disk full", shared.ErrDownload)
		}
		runner, output := newTestRunner(client)

		err := run(t, runner, "get", "--config", path, "https://example.com/watch")
		if !errors.Is(err, shared.ErrDownload) {
			t.Errorf("expected ErrDownload, got %v", err)
		}
		tu.AssertContains(t, output.String(), "disk full")
	})

	t.Run("playlist requires flag", func(t *testing.T) {
		path, _ := writeConfig(t)
		runner, _ := newTestRunner(playlistMock())

		err := run(t, runner, "get", "--config", path, "https://example.com/list")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("playlist downloads every entry", func(t *testing.T) {
		path, _ := writeConfig(t)
		client := playlistMock()
		video := videoClient()
		client.FormatsFn = video.FormatsFn
		client.DownloadFn = video.DownloadFn
		runner, output := newTestRunner(client)

		if err := run(t, runner, "get", "--config", path, "--playlist", "https://example.com/list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "Queued playlist: 2 entries")
		tu.AssertContains(t, output.String(), "Downloaded 2 of 2")
		if n := client.DownloadCalls.Load(); n != 2 {
			t.Errorf("expected 2 downloads, got %d", n)
		}
	})

	t.Run("detection failure", func(t *testing.T) {
		path, _ := writeConfig(t)
		runner, _ := newTestRunner(&tu.MockClient{})

		if err := run(t, runner, "get", "--config", path, "https://example.com/x"); !errors.Is(err, shared.ErrProbe) {
			t.Errorf("expected ErrProbe, got %v", err)
		}
	})
}

func TestCacheAndHistory(t *testing.T) {
	path, dir := writeConfig(t)
	runner, output := newTestRunner(videoClient())

	if err := run(t, runner, "probe", "--config", path, "https://example.com/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := run(t, runner, "probe", "--config", path, "https://example.com/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "cache", "list", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "https://example.com/a")
		tu.AssertContains(t, output.String(), "https://example.com/b")
	})

	t.Run("prune keeps live entries", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "cache", "prune", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "Pruned 0")
	})

	t.Run("prune removes expired entries", func(t *testing.T) {
		output.Reset()
		runner.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { runner.now = time.Now }()

		if err := run(t, runner, "cache", "prune", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "Pruned 2")
	})

	t.Run("clear", func(t *testing.T) {
		_ = run(t, runner, "probe", "--config", path, "https://example.com/c")
		output.Reset()
		if err := run(t, runner, "cache", "clear", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, output.String(), "Removed 1")

		output.Reset()
		_ = run(t, runner, "cache", "list", "--config", path)
		tu.AssertContains(t, output.String(), "Cache is empty")
	})

	t.Run("history", func(t *testing.T) {
		db, err := shared.OpenMigrated(filepath.Join(dir, "cache.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		repo := repositories.NewHistoryRepository(db)
		for i, st := range []models.Status{models.StatusCompleted, models.StatusFailed, models.StatusCancelled} {
			_ = repo.Put(models.HistoryRecord{
				ID:         fmt.Sprintf("item-%d", i),
				URL:        fmt.Sprintf("https://example.com/%d", i),
				Title:      fmt.Sprintf("Video %d", i),
				FormatID:   "18",
				Status:     st,
				FinishedAt: time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC),
			})
		}
		db.Close()

		output.Reset()
		if err := run(t, runner, "history", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range 3 {
			tu.AssertContains(t, output.String(), fmt.Sprintf("Video %d", i))
		}

		output.Reset()
		if err := run(t, runner, "history", "--config", path, "--limit", "1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(output.String(), "Video 0") || !strings.Contains(output.String(), "Video 2") {
			t.Errorf("expected only the newest record, got %q", output.String())
		}

		out := filepath.Join(dir, "history.csv")
		if err := run(t, runner, "history", "--config", path, "--export", "csv", "--output", out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertContains(t, tu.MustReadFile(t, out), "item-1,https://example.com/1,Video 1,18,Failed")
	})
}
