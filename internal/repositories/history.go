package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytq/internal/models"
)

// HistoryRepository implements models.Repository[models.HistoryRecord] over download_history.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Put records a finished download, replacing an earlier record for the same item.
func (r *HistoryRepository) Put(rec models.HistoryRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO download_history (id, url, title, format_id, output_dir, status, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		rec.ID,
		rec.URL,
		rec.Title,
		rec.FormatID,
		rec.OutputDir,
		string(rec.Status),
		sql.NullString{String: rec.Error, Valid: rec.Error != ""},
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Get retrieves a history record by item id.
func (r *HistoryRepository) Get(id string) (models.HistoryRecord, error) {
	query := `
		SELECT id, url, title, format_id, output_dir, status, error, finished_at
		FROM download_history
		WHERE id = ?
	`
	rec, err := scanHistory(r.db.QueryRow(query, id))
	if err != nil {
		return models.HistoryRecord{}, notFound(err, id)
	}
	return rec, nil
}

// Delete removes a history record.
func (r *HistoryRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM download_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	return nil
}

// List returns records newest first, at most limit when limit is positive.
func (r *HistoryRepository) List(limit int) ([]models.HistoryRecord, error) {
	query := `
		SELECT id, url, title, format_id, output_dir, status, error, finished_at
		FROM download_history
		ORDER BY finished_at DESC
	` + limitClause(limit)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Record implements the orchestrator's history port.
func (r *HistoryRepository) Record(rec models.HistoryRecord) error {
	return r.Put(rec)
}

func scanHistory(s scanner) (models.HistoryRecord, error) {
	var (
		rec    models.HistoryRecord
		status string
		errMsg sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.FormatID, &rec.OutputDir, &status, &errMsg, &rec.FinishedAt)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	rec.Status = models.Status(status)
	rec.Error = errMsg.String
	return rec, nil
}
