package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/queue"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	InputView
	FormatView
	PlaylistView
)

// Model represents the TUI application state.
//
// Domain state lives in the orchestrator; the model keeps only a rendered copy of it plus
// widget state (text input, list cursors, the audio filter).
type Model struct {
	ctx      context.Context
	orch     *queue.Orchestrator
	logger   *log.Logger
	tick     time.Duration
	state    queue.State
	inputing bool

	width     int
	height    int
	input     textinput.Model
	spinner   spinner.Model
	bar       progress.Model
	help      help.Model
	keys      keyMap
	formats   list.Model
	entries   list.Model
	formatFor string
	entryFor  string
	audioOnly bool
}

// Opts configures [NewModel].
type Opts struct {
	Orchestrator *queue.Orchestrator
	Logger       *log.Logger
	Tick         time.Duration
}

// NewModel creates a new TUI model observing the orchestrator.
func NewModel(ctx context.Context, opts Opts) *Model {
	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.Prompt = "URL: "
	input.CharLimit = 2048

	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}

	m := &Model{
		ctx:     ctx,
		orch:    opts.Orchestrator,
		logger:  shared.WithLogger(opts.Logger, "component", "ui"),
		tick:    opts.Tick,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:    help.New(),
		keys:    newKeyMap(),
		formats: newList("Select a format"),
		entries: newList("Playlist"),
	}
	m.refresh()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// Init starts waiting on the event bus and the render tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.scheduleTick(), m.spinner.Tick)
}

// View returns the view the current state calls for. Prompts take precedence over the queue.
func (m *Model) View() string {
	switch m.viewState() {
	case PlaylistView:
		return m.renderPlaylist()
	case FormatView:
		return m.renderFormats()
	default:
		return m.renderQueue()
	}
}

func (m *Model) viewState() ViewState {
	switch {
	case m.state.PlaylistPrompt != nil:
		return PlaylistView
	case m.state.FormatPrompt != nil:
		return FormatView
	case m.inputing:
		return InputView
	default:
		return QueueView
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.formats.SetSize(msg.Width-4, msg.Height-6)
		m.entries.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = max(10, min(40, msg.Width/3))
		m.input.Width = max(20, msg.Width-10)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case Msg:
		cmd = m.handleMsg(msg)
	}

	m.refresh()
	if m.state.ShouldQuit {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgEvent:
		m.orch.Apply(msg.data.(tasks.Event))
		return m.waitForEvent()
	case MsgBusClosed:
		if err, _ := msg.data.(error); err != nil && !errors.Is(err, shared.ErrChannelClosed) && !errors.Is(err, context.Canceled) {
			m.logger.Error("event bus stopped", "error", err)
		}
		return nil
	case MsgTick:
		return m.scheduleTick()
	case MsgOpened:
		data := msg.data.(struct {
			path string
			err  error
		})
		if data.err != nil {
			m.logger.Warn("failed to open output directory", "path", data.path, "error", data.err)
		}
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.dispatch(queue.Quit())
		return nil
	}

	switch m.viewState() {
	case PlaylistView:
		return m.handlePlaylistKeys(msg)
	case FormatView:
		return m.handleFormatKeys(msg)
	case InputView:
		return m.handleInputKeys(msg)
	default:
		return m.handleQueueKeys(msg)
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) tea.Cmd {
	selected, ok := m.state.SelectedItem()

	switch {
	case key.Matches(msg, m.keys.quit):
		m.dispatch(queue.Quit())
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		m.dispatch(queue.MoveCursor(-1))
	case key.Matches(msg, m.keys.down):
		m.dispatch(queue.MoveCursor(1))
	case key.Matches(msg, m.keys.add):
		m.inputing = true
		m.input.SetValue("")
		return m.input.Focus()
	case key.Matches(msg, m.keys.back):
		m.dispatch(queue.DismissNotice())
	case key.Matches(msg, m.keys.open):
		return m.openOutputDir()
	case !ok:
	case key.Matches(msg, m.keys.download):
		m.dispatch(queue.StartDownload(selected.ID))
	case key.Matches(msg, m.keys.formats):
		m.dispatch(queue.FetchFormats(selected.ID))
	case key.Matches(msg, m.keys.pause):
		if selected.Status == models.StatusPaused {
			m.dispatch(queue.ResumeDownload(selected.ID))
		} else {
			m.dispatch(queue.PauseDownload(selected.ID))
		}
	case key.Matches(msg, m.keys.cancel):
		m.dispatch(queue.CancelDownload(selected.ID))
	case key.Matches(msg, m.keys.remove):
		m.dispatch(queue.RemoveItem(selected.ID))
	}
	return nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputing = false
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		url := strings.TrimSpace(m.input.Value())
		m.inputing = false
		m.input.Blur()
		if url != "" {
			m.dispatch(queue.AddURL(url))
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleFormatKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.dispatch(queue.CloseFormats())
		return nil
	case key.Matches(msg, m.keys.audio):
		m.audioOnly = !m.audioOnly
		return m.formats.SetItems(formatItems(m.state.FormatPrompt.Formats, m.audioOnly))
	case key.Matches(msg, m.keys.submit):
		if item, ok := m.formats.SelectedItem().(formatItem); ok {
			m.dispatch(queue.SelectFormat(m.state.FormatPrompt.ItemID, item.format))
		}
		return nil
	}

	var cmd tea.Cmd
	m.formats, cmd = m.formats.Update(msg)
	return cmd
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.dispatch(queue.ConfirmPlaylist())
		return nil
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.dispatch(queue.DismissPlaylist())
		return nil
	}

	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	return cmd
}

// dispatch forwards an action; rejected actions already surface as the notice.
func (m *Model) dispatch(a queue.Action) {
	if err := m.orch.Dispatch(a); err != nil {
		m.logger.Debug("action failed", "action", a.Kind, "error", err)
	}
}

// refresh copies orchestrator state and rebuilds prompt lists when a new prompt appears.
func (m *Model) refresh() {
	m.state = m.orch.State()

	if p := m.state.FormatPrompt; p == nil {
		m.formatFor = ""
	} else if p.ItemID != m.formatFor {
		m.formatFor = p.ItemID
		m.audioOnly = false
		m.formats.Title = "Formats for " + shared.Truncate(p.Title, 50)
		m.formats.SetItems(formatItems(p.Formats, false))
		m.formats.ResetSelected()
	}

	if p := m.state.PlaylistPrompt; p == nil {
		m.entryFor = ""
	} else if p.URL != m.entryFor {
		m.entryFor = p.URL
		m.entries.SetItems(entryItems(p.Entries))
		m.entries.ResetSelected()
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, err := m.orch.Bus().Next(m.ctx)
		if err != nil {
			return busClosedMsg(err)
		}
		return eventMsg(e)
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) openOutputDir() tea.Cmd {
	dir := m.state.OutputDir
	return func() tea.Msg {
		return openedMsg(dir, shared.OpenPath(dir))
	}
}

func (m *Model) renderQueue() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("ytq • %d items", len(m.state.Items))))
	b.WriteString("\n")

	if len(m.state.Items) == 0 {
		b.WriteString(styles.help.Render("Queue is empty. Press a to add a URL."))
		b.WriteString("\n")
	}
	for i, it := range m.state.Items {
		b.WriteString(m.renderItem(it, i == m.state.Selected))
		b.WriteString("\n")
	}

	if m.state.Loading {
		b.WriteString("\n" + m.spinner.View() + " " + m.state.LoadingMessage + "\n")
	}
	if m.inputing {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if it, ok := m.state.SelectedItem(); ok && it.Error != "" {
		b.WriteString("\n" + styles.err.Render("Error: ") + it.Error + "\n")
	}
	if m.state.Notice != "" {
		b.WriteString("\n" + styles.notice.Render(m.state.Notice) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderItem(it models.Item, selected bool) string {
	cursor := "  "
	title := shared.Truncate(it.DisplayTitle(), max(20, m.width-50))
	if selected {
		cursor = styles.selected.Render("> ")
		title = styles.selected.Render(title)
	}

	label := it.Status.String()
	if it.Status == models.StatusFetchingInfo {
		label = m.spinner.View() + " " + label
	}
	line := fmt.Sprintf("%s%s  %s", cursor, title, styles.status(it.Status).Render(label))
	if it.Duration != "" {
		line += styles.help.Render(" " + it.Duration)
	}

	switch it.Status {
	case models.StatusDownloading, models.StatusPaused:
		parts := []string{m.bar.ViewAs(it.Progress.Ratio()), it.Progress.String()}
		if it.Format != nil {
			parts = append(parts, styles.help.Render(it.Format.DisplayName()))
		}
		line += "\n    " + strings.Join(parts, " ")
	}
	return line
}

func (m *Model) renderFormats() string {
	filter := "all formats"
	if m.audioOnly {
		filter = "audio only"
	}
	helpKeys := []key.Binding{m.keys.submit, m.keys.audio, m.keys.back}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.formats.View(),
		styles.help.Render(filter),
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderPlaylist() string {
	p := m.state.PlaylistPrompt
	summary := fmt.Sprintf("%d entries", len(p.Entries))
	if p.TotalDuration != "" {
		summary += " • " + p.TotalDuration
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.up, m.keys.down}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.title.Render("Playlist detected"),
		styles.help.Render(shared.Truncate(p.URL, max(20, m.width-4))),
		styles.ok.Render(summary),
		"",
		m.entries.View(),
		m.help.ShortHelpView(helpKeys),
	)
}
