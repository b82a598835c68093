// package formatter renders probe results, listings, cache entries and download history as
// plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/dustin/go-humanize"
)

// Export is an output encoding accepted by the CLI.
type Export string

const (
	Text     Export = "text"
	Markdown Export = "md"
	CSV      Export = "csv"
)

// ParseExport maps a flag value to an [Export], defaulting to [Text].
func ParseExport(s string) (Export, error) {
	switch Export(s) {
	case "", Text, "txt":
		return Text, nil
	case Markdown, "markdown":
		return Markdown, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (want text, md or csv)", shared.ErrInvalidInput, s)
	}
}

// FormatsToText renders a single item's metadata and a table of its formats, best first.
func FormatsToText(res models.ProbeResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Title: %s\n", orDash(res.Title))
	if res.Duration != "" {
		fmt.Fprintf(&buf, "Duration: %s\n", res.Duration)
	}
	fmt.Fprintf(&buf, "Formats: %d\n\n", len(res.Formats))

	formats := append([]models.Format(nil), res.Formats...)
	models.SortFormats(formats)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXT\tRESOLUTION\tFPS\tCODECS\tSIZE")
	for _, f := range formats {
		fps := ""
		if f.FPS > 0 {
			fps = strconv.FormatFloat(f.FPS, 'f', -1, 64)
		}
		resolution := f.Resolution
		if f.AudioOnly {
			resolution = "audio only"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.Ext, orDash(resolution), orDash(fps), orDash(codecs(f)), orDash(shared.FormatBytes(f.Filesize)))
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write format table: %w", err)
	}

	return buf.Bytes(), nil
}

// ListingToText renders a playlist listing with its aggregate duration.
func ListingToText(res models.ProbeResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", res.URL)
	fmt.Fprintf(&buf, "Entries: %d\n", len(res.Entries))
	if total := res.TotalDuration(); total != "" {
		fmt.Fprintf(&buf, "Total duration: %s\n", total)
	}
	buf.WriteString("\n")

	for i, e := range res.Entries {
		fmt.Fprintf(&buf, "%d. %s%s\n", i+1, orDash(e.Title), bracket(e.Duration))
	}

	return buf.Bytes(), nil
}

// ListingToMarkdown renders a playlist listing as a linked Markdown list.
func ListingToMarkdown(res models.ProbeResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", res.URL)
	fmt.Fprintf(&buf, "**Entries**: %d\n", len(res.Entries))
	if total := res.TotalDuration(); total != "" {
		fmt.Fprintf(&buf, "**Total duration**: %s\n", total)
	}
	buf.WriteString("\n## Entries\n\n")

	for i, e := range res.Entries {
		fmt.Fprintf(&buf, "%d. [%s](%s)%s\n", i+1, orDash(e.Title), e.URL, bracket(e.Duration))
	}

	return buf.Bytes(), nil
}

// ListingToCSV converts a playlist listing to CSV with columns: Index, Title, Duration, URL
func ListingToCSV(res models.ProbeResult) ([]byte, error) {
	rows := make([][]string, 0, len(res.Entries))
	for i, e := range res.Entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Title, e.Duration, e.URL})
	}
	return writeCSV([]string{"Index", "Title", "Duration", "URL"}, rows)
}

// ExportListing renders a listing in the requested encoding.
func ExportListing(res models.ProbeResult, as Export) ([]byte, error) {
	switch as {
	case Markdown:
		return ListingToMarkdown(res)
	case CSV:
		return ListingToCSV(res)
	default:
		return ListingToText(res)
	}
}

// CacheToText lists cached probe results with their age relative to now.
func CacheToText(entries []models.ProbeResult, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("Cache is empty\n")
		return buf.Bytes(), nil
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tCAPTURED\tSUMMARY\tURL")
	for _, e := range entries {
		summary := fmt.Sprintf("%d formats", len(e.Formats))
		if e.Kind == models.KindPlaylist {
			summary = fmt.Sprintf("%d entries", len(e.Entries))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Kind, humanize.RelTime(e.CapturedAt, now, "ago", "from now"), summary, e.URL)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write cache table: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToText lists finished downloads, one per line.
func HistoryToText(records []models.HistoryRecord) ([]byte, error) {
	var buf bytes.Buffer
	if len(records) == 0 {
		buf.WriteString("No downloads yet\n")
		return buf.Bytes(), nil
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tSTATUS\tFORMAT\tTITLE")
	for _, r := range records {
		title := shared.Truncate(r.Title, 60)
		if r.Error != "" {
			title = fmt.Sprintf("%s (%s)", title, shared.Truncate(r.Error, 40))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.FinishedAt.Local().Format(time.DateTime), r.Status, orDash(r.FormatID), title)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write history table: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToCSV converts download history to CSV with columns: ID, URL, Title, Format, Status, Error, Output, Finished
func HistoryToCSV(records []models.HistoryRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.URL,
			r.Title,
			r.FormatID,
			r.Status.String(),
			r.Error,
			r.OutputDir,
			r.FinishedAt.UTC().Format(time.RFC3339),
		})
	}
	return writeCSV([]string{"ID", "URL", "Title", "Format", "Status", "Error", "Output", "Finished"}, rows)
}

// ExportHistory renders history in the requested encoding. Markdown falls back to text.
func ExportHistory(records []models.HistoryRecord, as Export) ([]byte, error) {
	if as == CSV {
		return HistoryToCSV(records)
	}
	return HistoryToText(records)
}

// WriteExport writes data to path, creating parent directories.
func WriteExport(data []byte, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func codecs(f models.Format) string {
	switch {
	case f.VCodec != "" && f.ACodec != "":
		return f.VCodec + "+" + f.ACodec
	case f.VCodec != "":
		return f.VCodec
	default:
		return f.ACodec
	}
}

func bracket(s string) string {
	if s == "" {
		return ""
	}
	return " [" + s + "]"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
