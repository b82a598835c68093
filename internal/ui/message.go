package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytq/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEvent MsgKind = iota
	MsgBusClosed
	MsgTick
	MsgOpened
)

// eventMsg is the constructor for [MsgEvent]
func eventMsg(e tasks.Event) Msg {
	return Msg{kind: MsgEvent, data: e}
}

// busClosedMsg is the constructor for [MsgBusClosed]
func busClosedMsg(err error) Msg {
	return Msg{kind: MsgBusClosed, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(path string, err error) Msg {
	return Msg{
		kind: MsgOpened,
		data: struct {
			path string
			err  error
		}{path, err},
	}
}
