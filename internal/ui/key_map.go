package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	add      key.Binding
	download key.Binding
	formats  key.Binding
	pause    key.Binding
	cancel   key.Binding
	remove   key.Binding
	open     key.Binding
	audio    key.Binding
	submit   key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		add:      key.NewBinding(key.WithKeys("a", "i"), key.WithHelp("a", "add url")),
		download: key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "download")),
		formats:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "formats")),
		pause:    key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
		cancel:   key.NewBinding(key.WithKeys("c", "x"), key.WithHelp("c", "cancel")),
		remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open folder")),
		audio:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "audio only")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "queue all")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "dismiss")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.add, k.download, k.cancel, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.add},
		{k.download, k.formats, k.pause},
		{k.cancel, k.remove, k.open},
		{k.back, k.help, k.quit},
	}
}
