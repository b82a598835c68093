// Package models defines the queue domain for ytq.
//
// The package contains two categories of types:
//
// 1. Probe results: immutable descriptions of remote media returned by the extractor
//   - [Format] : one selectable encoding of a media item
//   - [PlaylistEntry] : one (url, title, duration) triple of a collection listing
//   - [ProbeResult] : the cached outcome of probing a URL, either formats or a listing
//
// 2. Queue state: the per-item lifecycle mutated by the orchestrator
//   - [Item] : one requested download and its [Status] state machine
//   - [Progress] : the latest transfer snapshot of a download
//   - [HistoryRecord] : a finished download as stored in the history table
//
// Transition methods on [Item] return [shared.ErrInvalidTransition] for moves the lifecycle
// does not allow; event-driven transitions (progress, completion, failure) report whether
// they changed anything instead, so late events never error.
package models
