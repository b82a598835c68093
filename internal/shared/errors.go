package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Collaborator errors
	ErrProbe              = fmt.Errorf("probe failed")
	ErrDownload           = fmt.Errorf("download failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Persistence errors (always recovered locally)
	ErrCache = fmt.Errorf("cache error")

	// Task plumbing
	ErrChannelClosed = fmt.Errorf("channel closed")
	ErrNoPermit      = fmt.Errorf("no permit available")

	// Queue and state machine errors
	ErrItemNotFound       = fmt.Errorf("item not found")
	ErrInvalidTransition  = fmt.Errorf("invalid state transition")
	ErrNoFormat           = fmt.Errorf("no format selected")
	ErrUnsupportedControl = fmt.Errorf("control not supported by downloader")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidURL      = fmt.Errorf("invalid URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
