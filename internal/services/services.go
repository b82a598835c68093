// package services defines the Client interface for the extraction tool
package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

// Client talks to the media extraction tool. Implementations must be safe for concurrent use.
type Client interface {
	// Metadata fetches the title and duration of a single item.
	Metadata(ctx context.Context, url string) (Metadata, error)

	// Listing fetches the flat entry list of a collection, in order.
	Listing(ctx context.Context, url string) ([]models.PlaylistEntry, error)

	// Formats performs a full probe and returns a single-item result with sorted formats.
	Formats(ctx context.Context, url string) (models.ProbeResult, error)

	// Download transfers req.URL into req.OutputDir, sending snapshots on progress.
	// The caller owns progress and closes it after Download returns.
	Download(ctx context.Context, req DownloadRequest, progress chan<- models.Progress) error
}

// Suspender is implemented by clients able to pause and continue a running download.
type Suspender interface {
	Suspend(itemID string) error
	Continue(itemID string) error
}

// Metadata is the result of a fast single-item probe.
type Metadata struct {
	Title     string
	Duration  string
	Thumbnail string
}

// DownloadRequest describes one transfer.
type DownloadRequest struct {
	ItemID    string
	URL       string
	Format    models.Format
	OutputDir string
}

var knownSites = regexp.MustCompile(`^https?://(www\.)?(youtube\.com|youtu\.be|vimeo\.com|dailymotion\.com|twitch\.tv|instagram\.com|twitter\.com|x\.com|tiktok\.com|facebook\.com|soundcloud\.com|spotify\.com|bandcamp\.com|archive\.org)/.*`)

// ValidateURL accepts http(s) URLs with a host.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if IsKnownSite(raw) {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", shared.ErrInvalidURL, raw)
	}
	return nil
}

// IsKnownSite reports whether raw belongs to a site the extractor is known to support.
func IsKnownSite(raw string) bool {
	return knownSites.MatchString(strings.TrimSpace(raw))
}
