package queue

import (
	"slices"

	"github.com/desertthunder/ytq/internal/models"
)

// FormatPrompt asks the user to pick an encoding for one item.
type FormatPrompt struct {
	ItemID  string
	Title   string
	Formats []models.Format
}

// PlaylistPrompt is a detected collection awaiting confirmation. Nothing is queued until it is confirmed.
type PlaylistPrompt struct {
	URL           string
	Entries       []models.PlaylistEntry
	TotalDuration string // empty when no entry duration parses
}

// State is a read-only copy of everything the rendering layer shows.
type State struct {
	Items          []models.Item
	Selected       int
	Notice         string
	Loading        bool
	LoadingMessage string
	FormatPrompt   *FormatPrompt
	PlaylistPrompt *PlaylistPrompt
	OutputDir      string
	ShouldQuit     bool
}

// SelectedItem returns the item under the cursor.
func (s State) SelectedItem() (models.Item, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return models.Item{}, false
	}
	return s.Items[s.Selected], true
}

// Find returns the item with id.
func (s State) Find(id string) (models.Item, bool) {
	i := slices.IndexFunc(s.Items, func(it models.Item) bool { return it.ID == id })
	if i < 0 {
		return models.Item{}, false
	}
	return s.Items[i], true
}

// Counts tallies items per status.
func (s State) Counts() map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, it := range s.Items {
		counts[it.Status]++
	}
	return counts
}

func (p *FormatPrompt) clone() *FormatPrompt {
	if p == nil {
		return nil
	}
	c := *p
	c.Formats = slices.Clone(p.Formats)
	return &c
}

func (p *PlaylistPrompt) clone() *PlaylistPrompt {
	if p == nil {
		return nil
	}
	c := *p
	c.Entries = slices.Clone(p.Entries)
	return &c
}
