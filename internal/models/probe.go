package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/ytq/internal/shared"
)

// ResultKind distinguishes the two shapes of a [ProbeResult].
type ResultKind string

const (
	KindSingle   ResultKind = "single"
	KindPlaylist ResultKind = "playlist"
)

// PlaylistEntry is one item of a collection listing.
type PlaylistEntry struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
}

// ProbeResult is the cached outcome of asking the extractor about a URL.
//
// Exactly one of Formats or Entries is meaningful, as reported by Kind.
type ProbeResult struct {
	URL        string          `json:"url"`
	Kind       ResultKind      `json:"kind"`
	Title      string          `json:"title,omitempty"`
	Duration   string          `json:"duration,omitempty"`
	Formats    []Format        `json:"formats,omitempty"`
	Entries    []PlaylistEntry `json:"entries,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
}

// NewFormatsResult builds a single-item result carrying formats.
func NewFormatsResult(url, title, duration string, formats []Format, at time.Time) ProbeResult {
	return ProbeResult{URL: url, Kind: KindSingle, Title: title, Duration: duration, Formats: slices.Clone(formats), CapturedAt: at}
}

// NewListingResult builds a collection result carrying entries.
func NewListingResult(url string, entries []PlaylistEntry, at time.Time) ProbeResult {
	return ProbeResult{URL: url, Kind: KindPlaylist, Entries: slices.Clone(entries), CapturedAt: at}
}

// IsPlaylist reports whether the result is a listing with more than one entry.
func (r ProbeResult) IsPlaylist() bool {
	return r.Kind == KindPlaylist && len(r.Entries) > 1
}

// HasFormats reports whether the result can drive a format prompt.
func (r ProbeResult) HasFormats() bool {
	return r.Kind == KindSingle && len(r.Formats) > 0
}

// Clone returns a deep copy so callers never share slices with the cache.
func (r ProbeResult) Clone() ProbeResult {
	r.Formats = slices.Clone(r.Formats)
	r.Entries = slices.Clone(r.Entries)
	return r
}

// Expired reports whether the result is older than ttl at now.
func (r ProbeResult) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CapturedAt) >= ttl
}

// TotalDuration sums the parseable entry durations, "" when none parse or the sum is zero.
func (r ProbeResult) TotalDuration() string {
	durations := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		durations[i] = e.Duration
	}
	return shared.AggregateDuration(durations)
}

// Key implements [Model].
func (r ProbeResult) Key() string { return r.URL }

// Timestamp implements [Model].
func (r ProbeResult) Timestamp() time.Time { return r.CapturedAt }

// Validate implements [Model].
func (r ProbeResult) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("%w: probe result without url", shared.ErrInvalidInput)
	}
	switch r.Kind {
	case KindSingle, KindPlaylist:
	default:
		return fmt.Errorf("%w: unknown result kind %q", shared.ErrInvalidInput, r.Kind)
	}
	if r.CapturedAt.IsZero() {
		return fmt.Errorf("%w: probe result without capture time", shared.ErrInvalidInput)
	}
	return nil
}
