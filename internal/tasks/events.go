package tasks

import "github.com/desertthunder/ytq/internal/models"

// EventKind tags an [Event].
type EventKind int

const (
	EventProgress EventKind = iota
	EventFormatsFetched
	EventFormatsFailed
	EventDownloadCompleted
	EventDownloadFailed
	EventPlaylistDetected
	EventSingleDetected
	EventPlaylistFailed
	EventURLValidated
	EventQuit
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventFormatsFetched:
		return "formats_fetched"
	case EventFormatsFailed:
		return "formats_failed"
	case EventDownloadCompleted:
		return "download_completed"
	case EventDownloadFailed:
		return "download_failed"
	case EventPlaylistDetected:
		return "playlist_detected"
	case EventSingleDetected:
		return "single_detected"
	case EventPlaylistFailed:
		return "playlist_failed"
	case EventURLValidated:
		return "url_validated"
	case EventQuit:
		return "quit"
	default:
		return ""
	}
}

// Event is an asynchronous outcome delivered to the orchestrator.
//
// Item events carry the id and task token they belong to; detection events carry the URL.
type Event struct {
	Kind       EventKind
	ItemID     string
	Token      uint64
	URL        string
	Progress   models.Progress
	Result     models.ProbeResult
	Background bool // formats fetched by prefetch rather than by the user
	Err        error
}

// IsTerminal reports whether the event ends its task.
func (e Event) IsTerminal() bool {
	switch e.Kind {
	case EventProgress, EventURLValidated, EventQuit:
		return false
	default:
		return true
	}
}

// ErrText returns the error message, or "" for successful events.
func (e Event) ErrText() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func ProgressEvent(id string, token uint64, p models.Progress) Event {
	return Event{Kind: EventProgress, ItemID: id, Token: token, Progress: p}
}

func FormatsFetchedEvent(id string, token uint64, r models.ProbeResult, background bool) Event {
	return Event{Kind: EventFormatsFetched, ItemID: id, Token: token, URL: r.URL, Result: r, Background: background}
}

func FormatsFailedEvent(id string, token uint64, err error, background bool) Event {
	return Event{Kind: EventFormatsFailed, ItemID: id, Token: token, Err: err, Background: background}
}

func DownloadCompletedEvent(id string, token uint64) Event {
	return Event{Kind: EventDownloadCompleted, ItemID: id, Token: token}
}

func DownloadFailedEvent(id string, token uint64, err error) Event {
	return Event{Kind: EventDownloadFailed, ItemID: id, Token: token, Err: err}
}

func PlaylistDetectedEvent(r models.ProbeResult) Event {
	return Event{Kind: EventPlaylistDetected, URL: r.URL, Result: r}
}

func SingleDetectedEvent(r models.ProbeResult) Event {
	return Event{Kind: EventSingleDetected, URL: r.URL, Result: r}
}

func PlaylistFailedEvent(url string, err error) Event {
	return Event{Kind: EventPlaylistFailed, URL: url, Err: err}
}

// URLValidatedEvent reports the validation outcome of a submitted URL; err is nil when valid.
func URLValidatedEvent(url string, err error) Event {
	return Event{Kind: EventURLValidated, URL: url, Err: err}
}

func QuitEvent() Event {
	return Event{Kind: EventQuit}
}
