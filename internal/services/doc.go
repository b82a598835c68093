// Package services wraps the external extraction tool behind the [Client] interface.
//
// # Client Interface
//
// [Client] exposes the four calls the queue needs: fast single-item [Client.Metadata], flat
// collection [Client.Listing], a full [Client.Formats] probe, and [Client.Download] which
// streams progress snapshots until the transfer finishes or its context is cancelled.
//
// # yt-dlp Implementation
//
// [YTDLP] builds yt-dlp command lines and parses their output. Process execution goes through
// the [Runner] interface so tests can substitute canned output; [ExecRunner] is the real one.
//
// # Detection
//
// [Detect] races Metadata against Listing to decide whether a URL is one item or a collection.
// Each branch gets the same fixed timeout. A listing with more than one entry wins; otherwise a
// successful metadata probe wins; a one-entry listing is treated as a single item. A branch that
// loses is abandoned rather than awaited.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrProbe] : metadata, listing or format probes failed
//   - [shared.ErrDownload] : the transfer exited non-zero or could not start
//   - [shared.ErrInvalidURL] : the input is not an http(s) URL
//   - [shared.ErrTimeout] : a detection branch exceeded its timeout
package services
