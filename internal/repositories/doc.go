// Package repositories implements SQLite persistence for ytq.
//
// Key Implementations:
//   - [ProbeCacheRepository] : durable backing store of the probe result cache, one row per URL
//     with the result JSON encoded in the payload column
//   - [HistoryRepository] : finished downloads, newest first
//
// Both implement [models.Repository]. Callers treat failures as non-fatal: the cache keeps
// serving from memory and the queue keeps running when history cannot be written.
package repositories
