// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/desertthunder/ytq/internal/shared"
)

// MockClient is a test double for [services.Client]. Nil funcs fail with [shared.ErrNotImplemented].
type MockClient struct {
	MetadataFn func(ctx context.Context, url string) (services.Metadata, error)
	ListingFn  func(ctx context.Context, url string) ([]models.PlaylistEntry, error)
	FormatsFn  func(ctx context.Context, url string) (models.ProbeResult, error)
	DownloadFn func(ctx context.Context, req services.DownloadRequest, progress chan<- models.Progress) error

	MetadataCalls atomic.Int32
	ListingCalls  atomic.Int32
	FormatsCalls  atomic.Int32
	DownloadCalls atomic.Int32
}

func (m *MockClient) Metadata(ctx context.Context, url string) (services.Metadata, error) {
	m.MetadataCalls.Add(1)
	if m.MetadataFn == nil {
		return services.Metadata{}, shared.ErrNotImplemented
	}
	return m.MetadataFn(ctx, url)
}

func (m *MockClient) Listing(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	m.ListingCalls.Add(1)
	if m.ListingFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return m.ListingFn(ctx, url)
}

func (m *MockClient) Formats(ctx context.Context, url string) (models.ProbeResult, error) {
	m.FormatsCalls.Add(1)
	if m.FormatsFn == nil {
		return models.ProbeResult{}, shared.ErrNotImplemented
	}
	return m.FormatsFn(ctx, url)
}

func (m *MockClient) Download(ctx context.Context, req services.DownloadRequest, progress chan<- models.Progress) error {
	m.DownloadCalls.Add(1)
	if m.DownloadFn == nil {
		return shared.ErrNotImplemented
	}
	return m.DownloadFn(ctx, req, progress)
}

// BlockUntilCancelled is a DownloadFn that reports one snapshot and waits for cancellation.
func BlockUntilCancelled(ctx context.Context, _ services.DownloadRequest, progress chan<- models.Progress) error {
	select {
	case progress <- models.Progress{Percent: 1}:
	case <-ctx.Done():
	}
	<-ctx.Done()
	return ctx.Err()
}

// FormatsFor returns a FormatsFn that answers every URL with the given formats.
func FormatsFor(title string, formats ...models.Format) func(context.Context, string) (models.ProbeResult, error) {
	return func(_ context.Context, url string) (models.ProbeResult, error) {
		return models.NewFormatsResult(url, title, "", formats, time.Now()), nil
	}
}

// Call records one invocation of [FakeRunner].
type Call struct {
	Name string
	Args []string
}

// Has reports whether the call carried flag.
func (c Call) Has(flag string) bool {
	return slices.Contains(c.Args, flag)
}

// FakeRunner is a test double for [services.Runner].
type FakeRunner struct {
	OutputFn  func(args []string) ([]byte, error)
	Lines     []string // emitted by Stream, in order
	StreamErr error

	mu    sync.Mutex
	calls []Call
}

func (f *FakeRunner) record(name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: slices.Clone(args)})
}

// Calls returns every recorded invocation.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *FakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if f.OutputFn == nil {
		return nil, shared.ErrNotImplemented
	}
	return f.OutputFn(args)
}

func (f *FakeRunner) Stream(ctx context.Context, onLine func(string), name string, args ...string) error {
	f.record(name, args)
	for _, line := range f.Lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		onLine(line)
	}
	return f.StreamErr
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}

// MustOpenDB opens a migrated in-memory database closed at test cleanup.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenMigrated(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, got)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}
