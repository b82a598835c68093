// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific record type.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/ytq/internal/shared"
)

// ErrNotFound is returned by Get when no row matches the key.
var ErrNotFound = errors.New("record not found")

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps [sql.ErrNoRows] to [ErrNotFound].
func notFound(err error, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// limitClause returns " LIMIT n" for positive n.
func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

// Count returns the number of rows in table.
func Count(db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %v", shared.ErrCache, table, err)
	}
	return n, nil
}
