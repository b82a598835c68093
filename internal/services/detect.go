package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

// DefaultDetectTimeout bounds each branch of [Detect].
const DefaultDetectTimeout = 5 * time.Second

// Outcome is what [Detect] decided a URL is.
type Outcome struct {
	URL      string
	Playlist bool
	Metadata Metadata               // set for single items
	Entries  []models.PlaylistEntry // set for collections with more than one entry
}

// Result converts a collection outcome into a cacheable listing result.
func (o Outcome) Result(at time.Time) models.ProbeResult {
	if o.Playlist {
		return models.NewListingResult(o.URL, o.Entries, at)
	}
	return models.ProbeResult{URL: o.URL, Kind: models.KindSingle, Title: o.Metadata.Title, Duration: o.Metadata.Duration, CapturedAt: at}
}

type metadataResult struct {
	md  Metadata
	err error
}

type listingResult struct {
	entries []models.PlaylistEntry
	err     error
}

// Detect races a single-item probe against a collection listing.
//
// Both branches start together and share one deadline of timeout. A listing with more than
// one entry returns as soon as it arrives. Otherwise the listing is awaited (or times out)
// before a successful metadata probe is accepted. A one-entry listing stands in for a failed
// metadata probe. Branches still running when Detect returns are abandoned.
func Detect(ctx context.Context, c Client, url string, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		timeout = DefaultDetectTimeout
	}

	mc := make(chan metadataResult, 1)
	lc := make(chan listingResult, 1)

	go func() {
		bctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		md, err := c.Metadata(bctx, url)
		mc <- metadataResult{md: md, err: err}
	}()
	go func() {
		bctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		entries, err := c.Listing(bctx, url)
		lc <- listingResult{entries: entries, err: err}
	}()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var (
		single  *metadataResult
		listing *listingResult
	)
	for single == nil || listing == nil {
		select {
		case r := <-mc:
			single = &r
		case r := <-lc:
			listing = &r
			if r.err == nil && len(r.entries) > 1 {
				return Outcome{URL: url, Playlist: true, Entries: slices.Clone(r.entries)}, nil
			}
		case <-deadline.C:
			timedOut := fmt.Errorf("%w after %s", shared.ErrTimeout, timeout)
			if single == nil {
				single = &metadataResult{err: timedOut}
			}
			if listing == nil {
				listing = &listingResult{err: timedOut}
			}
		case <-ctx.Done():
			return Outcome{}, fmt.Errorf("%w: %v", shared.ErrProbe, ctx.Err())
		}
	}

	if single.err == nil {
		return Outcome{URL: url, Metadata: single.md}, nil
	}
	if listing.err == nil && len(listing.entries) == 1 {
		e := listing.entries[0]
		return Outcome{URL: url, Metadata: Metadata{Title: e.Title, Duration: e.Duration}}, nil
	}

	return Outcome{}, fmt.Errorf("%w: failed to fetch URL info (item: %v; playlist: %v)", shared.ErrProbe, unwrapProbe(single.err), unwrapProbe(listing.err))
}

// unwrapProbe strips the leading sentinel text so nested probe errors read once.
func unwrapProbe(err error) string {
	msg := err.Error()
	if errors.Is(err, shared.ErrProbe) {
		msg = strings.TrimPrefix(msg, shared.ErrProbe.Error()+": ")
	}
	return msg
}
