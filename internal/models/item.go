package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/ytq/internal/shared"
)

// Item is one requested download in the queue.
//
// Only the orchestrator mutates items; everything else reads copies.
type Item struct {
	ID        string
	URL       string
	Title     string
	Duration  string
	Format    *Format
	Formats   []Format
	Status    Status
	Progress  Progress
	Error     string
	CreatedAt time.Time
}

// NewItem creates a pending item with a fresh identity.
func NewItem(url string) *Item {
	return &Item{
		ID:        shared.GenerateID(),
		URL:       url,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// NewEntryItem creates a pending item from a confirmed playlist entry.
func NewEntryItem(e PlaylistEntry) *Item {
	it := NewItem(e.URL)
	it.Title = e.Title
	it.Duration = e.Duration
	return it
}

// DisplayTitle returns the title, falling back to the URL.
func (it *Item) DisplayTitle() string {
	if it.Title != "" {
		return it.Title
	}
	return it.URL
}

// Snapshot returns a copy that shares no slices or pointers with it.
func (it *Item) Snapshot() Item {
	c := *it
	c.Formats = slices.Clone(it.Formats)
	if it.Format != nil {
		f := *it.Format
		c.Format = &f
	}
	return c
}

func (it *Item) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", shared.ErrInvalidTransition, action, it.Status)
}

// BeginProbe moves the item to [StatusFetchingInfo].
func (it *Item) BeginProbe() error {
	if !it.Status.CanProbe() {
		return it.invalid("probe")
	}
	it.Status = StatusFetchingInfo
	it.Error = ""
	return nil
}

// ProbeSucceeded stores probed metadata and moves the item to [StatusReady].
//
// Empty title or duration keep the values already known from a listing.
func (it *Item) ProbeSucceeded(title, duration string, formats []Format) error {
	if it.Status != StatusFetchingInfo && it.Status != StatusPending {
		return it.invalid("apply probe result")
	}
	if title != "" {
		it.Title = title
	}
	if duration != "" {
		it.Duration = duration
	}
	if formats != nil {
		it.Formats = slices.Clone(formats)
	}
	it.Status = StatusReady
	it.Error = ""
	return nil
}

// ProbeFailed records msg and moves the item to [StatusFailed].
func (it *Item) ProbeFailed(msg string) error {
	if it.Status != StatusFetchingInfo {
		return it.invalid("fail probe")
	}
	it.Status = StatusFailed
	it.Error = msg
	return nil
}

// RevertProbe returns a background probe that failed to [StatusPending].
func (it *Item) RevertProbe() error {
	if it.Status != StatusFetchingInfo {
		return it.invalid("revert probe")
	}
	it.Status = StatusPending
	return nil
}

// SelectFormat assigns the encoding to download.
func (it *Item) SelectFormat(f Format) error {
	if it.Status.IsActive() || it.Status == StatusPending {
		return it.invalid("select format")
	}
	it.Format = &f
	return nil
}

// StartDownload moves the item to [StatusDownloading], clearing the previous error and progress.
func (it *Item) StartDownload() error {
	if it.Format == nil {
		return fmt.Errorf("%w: %s", shared.ErrNoFormat, it.ID)
	}
	if it.Status.IsActive() || it.Status == StatusPending {
		return it.invalid("start download")
	}
	it.Status = StatusDownloading
	it.Error = ""
	it.Progress = Progress{}
	return nil
}

// ApplyProgress stores p and reports whether it was applied.
//
// Completed and cancelled items ignore progress. Any other state is forced to
// [StatusDownloading], except [StatusPaused] which keeps its label.
func (it *Item) ApplyProgress(p Progress) bool {
	if it.Status == StatusCancelled || it.Status == StatusCompleted {
		return false
	}
	if it.Status != StatusPaused {
		it.Status = StatusDownloading
	}
	it.Progress = p.Clamp()
	return true
}

// Complete marks the download finished. A user cancellation takes precedence.
func (it *Item) Complete() bool {
	if it.Status == StatusCancelled {
		return false
	}
	it.Status = StatusCompleted
	it.Progress.Percent = 100
	it.Error = ""
	return true
}

// Fail records msg and marks the item failed. A user cancellation takes precedence.
func (it *Item) Fail(msg string) bool {
	if it.Status == StatusCancelled {
		return false
	}
	it.Status = StatusFailed
	it.Error = msg
	return true
}

// Cancel moves a running item to [StatusCancelled].
func (it *Item) Cancel() error {
	if !it.Status.IsActive() {
		return it.invalid("cancel")
	}
	it.Status = StatusCancelled
	return nil
}

// Pause labels a downloading item as paused.
func (it *Item) Pause() error {
	if it.Status != StatusDownloading {
		return it.invalid("pause")
	}
	it.Status = StatusPaused
	return nil
}

// Resume returns a paused item to downloading.
func (it *Item) Resume() error {
	if it.Status != StatusPaused {
		return it.invalid("resume")
	}
	it.Status = StatusDownloading
	return nil
}
