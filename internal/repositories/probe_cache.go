package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/shared"
)

// ProbeCacheRepository implements models.Repository[models.ProbeResult] over the probe_cache table.
type ProbeCacheRepository struct {
	db *sql.DB
}

// NewProbeCacheRepository creates a new ProbeCacheRepository with the given database connection
func NewProbeCacheRepository(db *sql.DB) *ProbeCacheRepository {
	return &ProbeCacheRepository{db: db}
}

// Put inserts or replaces the cached result for r.URL.
func (r *ProbeCacheRepository) Put(res models.ProbeResult) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", shared.ErrCache, res.URL, err)
	}

	query := `
		INSERT INTO probe_cache (url, kind, payload, captured_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET kind = excluded.kind, payload = excluded.payload, captured_at = excluded.captured_at
	`
	if _, err := r.db.Exec(query, res.URL, string(res.Kind), string(payload), res.CapturedAt.UnixMilli()); err != nil {
		return fmt.Errorf("%w: failed to store %s: %v", shared.ErrCache, res.URL, err)
	}
	return nil
}

// Get retrieves the cached result for url.
func (r *ProbeCacheRepository) Get(url string) (models.ProbeResult, error) {
	row := r.db.QueryRow(`SELECT payload, captured_at FROM probe_cache WHERE url = ?`, url)
	res, err := scanProbe(row)
	if err != nil {
		return models.ProbeResult{}, notFound(err, url)
	}
	return res, nil
}

// Delete removes the cached result for url. Missing rows are not an error.
func (r *ProbeCacheRepository) Delete(url string) error {
	if _, err := r.db.Exec(`DELETE FROM probe_cache WHERE url = ?`, url); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", shared.ErrCache, url, err)
	}
	return nil
}

// List returns cached results newest first. Rows whose payload no longer decodes are skipped.
func (r *ProbeCacheRepository) List(limit int) ([]models.ProbeResult, error) {
	rows, err := r.db.Query(`SELECT payload, captured_at FROM probe_cache ORDER BY captured_at DESC` + limitClause(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list cache: %v", shared.ErrCache, err)
	}
	defer rows.Close()

	var out []models.ProbeResult
	for rows.Next() {
		res, err := scanProbe(rows)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read cache rows: %v", shared.ErrCache, err)
	}
	return out, nil
}

// Load returns every stored result.
func (r *ProbeCacheRepository) Load() ([]models.ProbeResult, error) {
	return r.List(0)
}

// Clear removes every cached result.
func (r *ProbeCacheRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM probe_cache`); err != nil {
		return fmt.Errorf("%w: failed to clear cache: %v", shared.ErrCache, err)
	}
	return nil
}

// Prune deletes results captured before cutoff and returns how many were removed.
func (r *ProbeCacheRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM probe_cache WHERE captured_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune cache: %v", shared.ErrCache, err)
	}
	return result.RowsAffected()
}

func scanProbe(s scanner) (models.ProbeResult, error) {
	var (
		payload  string
		captured int64
	)
	if err := s.Scan(&payload, &captured); err != nil {
		return models.ProbeResult{}, err
	}

	var res models.ProbeResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return models.ProbeResult{}, fmt.Errorf("%w: corrupt payload: %v", shared.ErrCache, err)
	}
	res.CapturedAt = time.UnixMilli(captured)
	return res, nil
}
