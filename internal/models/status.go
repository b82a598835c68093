package models

// Status is the lifecycle state of a queue [Item].
type Status string

const (
	StatusPending      Status = "Pending"
	StatusFetchingInfo Status = "Fetching info..."
	StatusReady        Status = "Ready"
	StatusDownloading  Status = "Downloading"
	StatusPaused       Status = "Paused"
	StatusCompleted    Status = "Completed"
	StatusFailed       Status = "Failed"
	StatusCancelled    Status = "Cancelled"
)

// String returns the display label of the status
func (s Status) String() string {
	return string(s)
}

// IsActive reports whether a background task is expected to be running for the item.
func (s Status) IsActive() bool {
	return s == StatusFetchingInfo || s == StatusDownloading || s == StatusPaused
}

// IsFinished returns true for completed, failed and cancelled items.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanProbe reports whether a metadata probe may start from this state.
func (s Status) CanProbe() bool {
	return !s.IsActive()
}
