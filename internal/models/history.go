package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytq/internal/shared"
)

// HistoryRecord is a finished download.
type HistoryRecord struct {
	ID         string
	URL        string
	Title      string
	FormatID   string
	OutputDir  string
	Status     Status
	Error      string
	FinishedAt time.Time
}

// NewHistoryRecord captures the terminal state of it.
func NewHistoryRecord(it Item, outputDir string, at time.Time) HistoryRecord {
	rec := HistoryRecord{
		ID:         it.ID,
		URL:        it.URL,
		Title:      it.DisplayTitle(),
		OutputDir:  outputDir,
		Status:     it.Status,
		Error:      it.Error,
		FinishedAt: at,
	}
	if it.Format != nil {
		rec.FormatID = it.Format.ID
	}
	return rec
}

// Key implements [Model].
func (h HistoryRecord) Key() string { return h.ID }

// Timestamp implements [Model].
func (h HistoryRecord) Timestamp() time.Time { return h.FinishedAt }

// Validate implements [Model].
func (h HistoryRecord) Validate() error {
	if h.ID == "" || h.URL == "" {
		return fmt.Errorf("%w: history record requires id and url", shared.ErrInvalidInput)
	}
	if !h.Status.IsFinished() {
		return fmt.Errorf("%w: history record with non-terminal status %q", shared.ErrInvalidInput, h.Status)
	}
	return nil
}
