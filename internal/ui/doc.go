// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is the input and rendering layer of the download queue:
//  1. [QueueView] : Items with status, progress bars, the current notice and loading spinner
//  2. [InputView] : Text input for a new URL
//  3. [FormatView] : Format picker with an audio-only filter
//  4. [PlaylistView] : Confirmation of a detected playlist with entry count and total duration
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Key presses become [queue.Action] values dispatched to the orchestrator; bus events are awaited with a
// tea.Cmd and applied in Update, so domain state is only ever mutated on bubbletea's goroutine.
// A fixed tick redraws the view independently of event arrival.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
