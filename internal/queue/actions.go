package queue

import "github.com/desertthunder/ytq/internal/models"

// ActionKind tags an [Action].
type ActionKind int

const (
	ActionAddURL ActionKind = iota
	ActionStartDownload
	ActionPauseDownload
	ActionResumeDownload
	ActionCancelDownload
	ActionRemoveItem
	ActionFetchFormats
	ActionConfirmPlaylist
	ActionDismissPlaylist
	ActionSelectFormat
	ActionCloseFormats
	ActionMoveCursor
	ActionDismissNotice
	ActionQuit
)

func (k ActionKind) String() string {
	switch k {
	case ActionAddURL:
		return "add_url"
	case ActionStartDownload:
		return "start_download"
	case ActionPauseDownload:
		return "pause_download"
	case ActionResumeDownload:
		return "resume_download"
	case ActionCancelDownload:
		return "cancel_download"
	case ActionRemoveItem:
		return "remove_item"
	case ActionFetchFormats:
		return "fetch_formats"
	case ActionConfirmPlaylist:
		return "confirm_playlist"
	case ActionDismissPlaylist:
		return "dismiss_playlist"
	case ActionSelectFormat:
		return "select_format"
	case ActionCloseFormats:
		return "close_formats"
	case ActionMoveCursor:
		return "move_cursor"
	case ActionDismissNotice:
		return "dismiss_notice"
	case ActionQuit:
		return "quit"
	default:
		return ""
	}
}

// Action is a user intent delivered by the input layer.
type Action struct {
	Kind   ActionKind
	ItemID string
	URL    string
	Format models.Format
	Delta  int
}

func AddURL(url string) Action { return Action{Kind: ActionAddURL, URL: url} }

func StartDownload(id string) Action { return Action{Kind: ActionStartDownload, ItemID: id} }

func PauseDownload(id string) Action { return Action{Kind: ActionPauseDownload, ItemID: id} }

func ResumeDownload(id string) Action { return Action{Kind: ActionResumeDownload, ItemID: id} }

func CancelDownload(id string) Action { return Action{Kind: ActionCancelDownload, ItemID: id} }

func RemoveItem(id string) Action { return Action{Kind: ActionRemoveItem, ItemID: id} }

func FetchFormats(id string) Action { return Action{Kind: ActionFetchFormats, ItemID: id} }

func ConfirmPlaylist() Action { return Action{Kind: ActionConfirmPlaylist} }

func DismissPlaylist() Action { return Action{Kind: ActionDismissPlaylist} }

// SelectFormat assigns f to the item and starts its download.
func SelectFormat(id string, f models.Format) Action {
	return Action{Kind: ActionSelectFormat, ItemID: id, Format: f}
}

func CloseFormats() Action { return Action{Kind: ActionCloseFormats} }

// MoveCursor moves the selection by delta rows, clamped to the queue.
func MoveCursor(delta int) Action { return Action{Kind: ActionMoveCursor, Delta: delta} }

func DismissNotice() Action { return Action{Kind: ActionDismissNotice} }

func Quit() Action { return Action{Kind: ActionQuit} }
