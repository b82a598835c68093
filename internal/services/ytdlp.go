package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

const (
	metadataTemplate = "%(title)s|%(duration_string)s|%(thumbnail)s"
	listingTemplate  = "%(id)s|%(title)s|%(duration_string)s|%(url)s"
)

var progressPattern = regexp.MustCompile(`\[download\]\s+(?P<percent>\d+\.?\d*)%(?:\s+of\s+~?\s*(?P<total>\S+))?(?:\s+at\s+(?P<speed>\S+))?(?:\s+ETA\s+(?P<eta>\S+))?`)

// YTDLPOpts configures a [YTDLP] client.
type YTDLPOpts struct {
	Binary    string   // defaults to "yt-dlp"
	ExtraArgs []string // appended before the URL on every call
	Runner    Runner   // defaults to [ExecRunner]
	Logger    *log.Logger
	Now       func() time.Time
}

// YTDLP implements [Client] by shelling out to yt-dlp.
type YTDLP struct {
	binary string
	extra  []string
	runner Runner
	logger *log.Logger
	now    func() time.Time
}

// NewYTDLP creates a yt-dlp client.
func NewYTDLP(opts YTDLPOpts) *YTDLP {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &YTDLP{
		binary: opts.Binary,
		extra:  opts.ExtraArgs,
		runner: opts.Runner,
		logger: shared.WithLogger(opts.Logger, "component", "yt-dlp"),
		now:    opts.Now,
	}
}

func (y *YTDLP) args(url string, args ...string) []string {
	out := make([]string, 0, len(args)+len(y.extra)+1)
	out = append(out, args...)
	out = append(out, y.extra...)
	return append(out, url)
}

// Metadata runs a print-only probe, which is much faster than a full JSON dump.
func (y *YTDLP) Metadata(ctx context.Context, url string) (Metadata, error) {
	start := y.now()
	out, err := y.runner.Output(ctx, y.binary, y.args(url, "--print", metadataTemplate, "--skip-download", "--no-warnings", "--quiet")...)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to fetch video info: %v", shared.ErrProbe, err)
	}

	md, err := parseMetadata(string(out))
	if err != nil {
		return Metadata{}, err
	}
	y.logger.Debug("metadata fetched", "url", url, "elapsed", y.now().Sub(start))
	return md, nil
}

// Listing runs a flat playlist probe.
func (y *YTDLP) Listing(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	out, err := y.runner.Output(ctx, y.binary, y.args(url, "--flat-playlist", "--print", listingTemplate, "--no-warnings", "--quiet")...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlist: %v", shared.ErrProbe, err)
	}

	entries := parseListing(string(out), url)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no playlist entries found", shared.ErrProbe)
	}
	return entries, nil
}

// Formats runs a full JSON dump and extracts the format table.
func (y *YTDLP) Formats(ctx context.Context, url string) (models.ProbeResult, error) {
	out, err := y.runner.Output(ctx, y.binary, y.args(url, "--dump-single-json", "--no-warnings")...)
	if err != nil {
		return models.ProbeResult{}, fmt.Errorf("%w: failed to fetch formats: %v", shared.ErrProbe, err)
	}

	info, err := parseInfo(out)
	if err != nil {
		return models.ProbeResult{}, err
	}
	if len(info.formats) == 0 {
		return models.ProbeResult{}, fmt.Errorf("%w: no formats available", shared.ErrProbe)
	}
	return models.NewFormatsResult(url, info.title, info.duration, info.formats, y.now()), nil
}

// Download runs the transfer, parsing "[download]" lines into progress snapshots.
func (y *YTDLP) Download(ctx context.Context, req DownloadRequest, progress chan<- models.Progress) error {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", shared.ErrDownload, err)
	}

	args := y.args(req.URL,
		"--format", req.Format.Selector(),
		"--output", filepath.Join(req.OutputDir, "%(title)s.%(ext)s"),
		"--merge-output-format", "mp4",
		"--newline",
		"--progress",
	)

	onLine := func(line string) {
		p, ok := parseProgress(line)
		if !ok || progress == nil {
			return
		}
		select {
		case progress <- p:
		case <-ctx.Done():
		}
	}

	y.logger.Info("download started", "item", req.ItemID, "format", req.Format.ID)
	if err := y.runner.Stream(ctx, onLine, y.binary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", shared.ErrDownload, ctxErr)
		}
		return fmt.Errorf("%w: %v", shared.ErrDownload, err)
	}
	return nil
}

func parseMetadata(out string) (Metadata, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	parts := strings.Split(strings.TrimSpace(line), "|")
	title := field(parts, 0)
	if title == "" {
		return Metadata{}, fmt.Errorf("%w: extractor returned no title", shared.ErrProbe)
	}
	return Metadata{Title: title, Duration: field(parts, 1), Thumbnail: field(parts, 2)}, nil
}

// parseListing turns "id|title|duration|url" lines into entries. Entries without a usable URL are skipped.
func parseListing(out, source string) []models.PlaylistEntry {
	youtube := strings.Contains(source, "youtube.com") || strings.Contains(source, "youtu.be")

	var entries []models.PlaylistEntry
	for line := range strings.SplitSeq(out, "\n") {
		parts := strings.Split(strings.TrimSpace(line), "|")
		if len(parts) < 2 {
			continue
		}

		id, entryURL := field(parts, 0), field(parts, 3)
		switch {
		case youtube && id != "":
			entryURL = "https://www.youtube.com/watch?v=" + id
		case strings.HasPrefix(entryURL, "http://"), strings.HasPrefix(entryURL, "https://"):
		default:
			continue
		}

		title := field(parts, 1)
		if title == "" {
			title = "Unknown"
		}
		entries = append(entries, models.PlaylistEntry{URL: entryURL, Title: title, Duration: field(parts, 2)})
	}
	return entries
}

// field returns parts[i] with the "NA" placeholder mapped to "".
func field(parts []string, i int) string {
	if i >= len(parts) {
		return ""
	}
	v := strings.TrimSpace(parts[i])
	if v == "NA" {
		return ""
	}
	return v
}

type info struct {
	title    string
	duration string
	formats  []models.Format
}

type rawInfo struct {
	Title          string      `json:"title"`
	DurationString string      `json:"duration_string"`
	Formats        []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	Width          *int     `json:"width"`
	Height         *int     `json:"height"`
	Resolution     string   `json:"resolution"`
	FPS            *float64 `json:"fps"`
	VCodec         *string  `json:"vcodec"`
	ACodec         *string  `json:"acodec"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
}

func parseInfo(data []byte) (info, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return info{}, fmt.Errorf("%w: malformed extractor output at offset %d", shared.ErrProbe, syntaxErr.Offset)
		}
		return info{}, fmt.Errorf("%w: %v", shared.ErrProbe, err)
	}

	out := info{title: raw.Title, duration: raw.DurationString}
	if out.title == "" {
		out.title = "Unknown"
	}
	if out.duration == "NA" {
		out.duration = ""
	}

	for _, rf := range raw.Formats {
		if f, ok := rf.toFormat(); ok {
			out.formats = append(out.formats, f)
		}
	}
	models.SortFormats(out.formats)
	return out, nil
}

func (rf rawFormat) toFormat() (models.Format, bool) {
	if rf.FormatID == "" {
		return models.Format{}, false
	}

	f := models.Format{ID: rf.FormatID, Ext: rf.Ext}
	if f.Ext == "" {
		f.Ext = "unknown"
	}
	if rf.Width != nil && rf.Height != nil {
		f.Resolution = strconv.Itoa(*rf.Width) + "x" + strconv.Itoa(*rf.Height)
	} else {
		f.Resolution = rf.Resolution
	}
	if rf.FPS != nil {
		f.FPS = *rf.FPS
	}
	if rf.VCodec != nil {
		f.VCodec = *rf.VCodec
	}
	if rf.ACodec != nil {
		f.ACodec = *rf.ACodec
	}
	switch {
	case rf.Filesize != nil:
		f.Filesize = *rf.Filesize
	case rf.FilesizeApprox != nil:
		f.Filesize = int64(*rf.FilesizeApprox)
	}
	f.AudioOnly = f.VCodec == "none" || (rf.VCodec == nil && rf.ACodec != nil)
	return f, true
}

// parseProgress reads "[download]  45.6% of 123.45MiB at 2.34MiB/s ETA 01:23".
func parseProgress(line string) (models.Progress, bool) {
	if !strings.HasPrefix(line, "[download]") {
		return models.Progress{}, false
	}
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return models.Progress{}, false
	}

	pct, err := strconv.ParseFloat(m[progressPattern.SubexpIndex("percent")], 64)
	if err != nil {
		return models.Progress{}, false
	}
	return models.Progress{
		Percent: pct,
		Total:   m[progressPattern.SubexpIndex("total")],
		Speed:   m[progressPattern.SubexpIndex("speed")],
		ETA:     m[progressPattern.SubexpIndex("eta")],
	}, true
}
