package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/queue"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Get drives the orchestrator headlessly: resolve the URL, probe every item, pick a format
// and download, printing progress until every item has finished.
func (r *Runner) Get(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	url, err := urlArg(cmd)
	if err != nil {
		return err
	}
	if dir := cmd.String("dir"); dir != "" {
		r.config.Downloads.OutputDir = dir
	}

	s := r.newSession(ctx)
	defer s.Close()

	g := &getter{
		r:        r,
		orch:     s.orch,
		format:   cmd.String("format"),
		audio:    cmd.Bool("audio"),
		playlist: cmd.Bool("playlist"),
		skipped:  make(map[string]string),
		probed:   make(map[string]bool),
		reported: make(map[string]int),
	}
	return g.run(ctx, url)
}

type getter struct {
	r        *Runner
	orch     *queue.Orchestrator
	format   string
	audio    bool
	playlist bool

	skipped  map[string]string // items with no usable format
	probed   map[string]bool
	reported map[string]int // last printed progress decile per item
}

func (g *getter) run(ctx context.Context, url string) error {
	if err := g.orch.Dispatch(queue.AddURL(url)); err != nil {
		return err
	}

	for {
		st := g.orch.State()

		if p := st.PlaylistPrompt; p != nil {
			if !g.playlist {
				_ = g.orch.Dispatch(queue.DismissPlaylist())
				return fmt.Errorf("%w: %s is a playlist with %d entries, pass --playlist to download all of them", shared.ErrInvalidInput, url, len(p.Entries))
			}
			g.r.writePlain("Queued playlist: %d entries %s\n", len(p.Entries), p.TotalDuration)
			if err := g.orch.Dispatch(queue.ConfirmPlaylist()); err != nil {
				return err
			}
			continue
		}

		if len(st.Items) == 0 && !st.Loading {
			return fmt.Errorf("%w: %s", shared.ErrProbe, st.Notice)
		}

		if len(st.Items) > 0 && g.finished(st) {
			return g.summarize(st)
		}
		if g.advance(st) {
			continue
		}

		e, err := g.orch.Step(ctx)
		if err != nil {
			if isInterrupt(err) {
				g.r.writePlain("\nInterrupted\n")
			}
			return err
		}
		g.report(e)
	}
}

// advance dispatches the next action for every item that needs one and reports whether it did.
func (g *getter) advance(st queue.State) bool {
	acted := false
	for _, it := range st.Items {
		if _, skip := g.skipped[it.ID]; skip {
			continue
		}

		switch {
		case it.Status == models.StatusReady && len(it.Formats) == 0 && g.probed[it.ID]:
			g.skipped[it.ID] = "no formats available"
			g.r.writePlain("✗ %s: %s\n", it.DisplayTitle(), g.skipped[it.ID])
			acted = true

		case it.Status == models.StatusPending, it.Status == models.StatusReady && len(it.Formats) == 0:
			g.probed[it.ID] = true
			if err := g.orch.Dispatch(queue.FetchFormats(it.ID)); err != nil {
				g.r.logger.Warn("failed to fetch formats", "item", it.ID, "error", err)
				g.skipped[it.ID] = err.Error()
			}
			acted = true

		case it.Status == models.StatusReady && it.Format == nil:
			f, ok := g.choose(it.Formats)
			if !ok {
				g.skipped[it.ID] = fmt.Sprintf("format %q not available", g.format)
				g.r.writePlain("✗ %s: %s\n", it.DisplayTitle(), g.skipped[it.ID])
				acted = true
				continue
			}
			g.r.writePlain("↓ %s [%s]\n", it.DisplayTitle(), f.DisplayName())
			if err := g.orch.Dispatch(queue.SelectFormat(it.ID, f)); err != nil {
				g.skipped[it.ID] = err.Error()
			}
			acted = true
		}
	}

	if acted && g.orch.State().FormatPrompt != nil {
		_ = g.orch.Dispatch(queue.CloseFormats())
	}
	return acted
}

func (g *getter) choose(formats []models.Format) (models.Format, bool) {
	sorted := slices.Clone(formats)
	models.SortFormats(sorted)

	switch {
	case g.format != "":
		return models.FindFormat(sorted, g.format)
	case g.audio:
		return models.BestFormat(models.FilterAudio(sorted))
	default:
		return models.BestFormat(sorted)
	}
}

func (g *getter) finished(st queue.State) bool {
	for _, it := range st.Items {
		if _, skip := g.skipped[it.ID]; !skip && !it.Status.IsFinished() {
			return false
		}
	}
	return true
}

func (g *getter) report(e tasks.Event) {
	it, ok := g.orch.State().Find(e.ItemID)
	if !ok {
		return
	}

	switch e.Kind {
	case tasks.EventProgress:
		decile := int(e.Progress.Percent) / 10
		if decile > g.reported[it.ID] {
			g.reported[it.ID] = decile
			g.r.writePlain("  %s %s\n", shared.Truncate(it.DisplayTitle(), 40), e.Progress)
		}
	case tasks.EventDownloadCompleted:
		g.r.writePlain("✓ %s\n", it.DisplayTitle())
	case tasks.EventDownloadFailed, tasks.EventFormatsFailed:
		g.r.writePlain("✗ %s: %s\n", it.DisplayTitle(), e.ErrText())
	}
}

func (g *getter) summarize(st queue.State) error {
	counts := st.Counts()
	done := counts[models.StatusCompleted]
	g.r.writePlain("\nDownloaded %d of %d to %s\n", done, len(st.Items), st.OutputDir)

	if done < len(st.Items) {
		return fmt.Errorf("%w: %d of %d items did not complete", shared.ErrDownload, len(st.Items)-done, len(st.Items))
	}
	return nil
}
