package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytq/internal/models"
)

var (
	_ list.Item = formatItem{}
	_ list.Item = entryItem{}
)

// formatItem wraps [models.Format] to implement [list.Item].
type formatItem struct {
	format models.Format
}

func (i formatItem) FilterValue() string { return i.format.DisplayName() }
func (i formatItem) Title() string       { return i.format.DisplayName() }
func (i formatItem) Description() string {
	desc := "format " + i.format.ID
	if i.format.VCodec != "" || i.format.ACodec != "" {
		desc = fmt.Sprintf("%s • %s %s", desc, i.format.VCodec, i.format.ACodec)
	}
	return desc
}

// entryItem wraps [models.PlaylistEntry] to implement [list.Item].
type entryItem struct {
	index int
	entry models.PlaylistEntry
}

func (i entryItem) FilterValue() string { return i.entry.Title }
func (i entryItem) Title() string {
	title := i.entry.Title
	if title == "" {
		title = i.entry.URL
	}
	return fmt.Sprintf("%d. %s", i.index+1, title)
}
func (i entryItem) Description() string {
	if i.entry.Duration == "" {
		return i.entry.URL
	}
	return fmt.Sprintf("%s • %s", i.entry.Duration, i.entry.URL)
}

func formatItems(formats []models.Format, audioOnly bool) []list.Item {
	if audioOnly {
		formats = models.FilterAudio(formats)
	}
	items := make([]list.Item, len(formats))
	for i, f := range formats {
		items[i] = formatItem{format: f}
	}
	return items
}

func entryItems(entries []models.PlaylistEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{index: i, entry: e}
	}
	return items
}
