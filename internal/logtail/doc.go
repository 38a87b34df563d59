// Package logtail tracks read offsets in growing log files and hands each
// newly completed line to a callback.
//
// # Overview
//
// A Source pairs a file path with a display tag and the byte offset up to
// which the file has been consumed. Drain reads forward from that offset and
// returns the position just after the last newline-terminated line. A
// trailing partial line is never consumed; it is picked up by a later Drain
// once the writer finishes it.
//
// # Offsets
//
// Offsets only move forward. Drain never returns an offset smaller than the
// one it was given, and never one that points into the middle of a line:
//
//	file:   a\nb\nc      (c not yet terminated)
//	offset: 0 -> 4       (c is left for the next cycle)
//
// # Starting Positions
//
// StartOffset resolves where a new Source begins reading:
//
//   - StartBeginning: offset 0, all existing content is replayed
//   - StartEnd: current file size, only new lines are seen
//   - StartTail: the start of the last N complete lines
//
// The tail position is found with a single forward scan and a ring buffer of
// line start offsets, so memory stays O(N) regardless of file size.
//
// # Error Handling
//
// Drain returns the previous offset unchanged when the file cannot be
// opened. Callers log the error and retry on the next cycle, which lets
// tailing survive log rotation and files that have not been created yet.
package logtail
