// package models defines the data model for the download queue
package models

import "time"

// Model defines the base interface for persisted records.
type Model interface {
	Key() string          // Key returns the unique identifier of the record
	Timestamp() time.Time // Timestamp returns when the record was captured or finished
	Validate() error      // Validate checks if the record's data is valid and returns an error if not
}

// Repository defines the data access operations shared by the SQLite stores.
type Repository[T Model] interface {
	Put(model T) error           // Put inserts or replaces a record
	Get(key string) (T, error)   // Get retrieves a record by its key
	Delete(key string) error     // Delete removes a record by its key
	List(limit int) ([]T, error) // List retrieves up to limit records, 0 meaning all
}
