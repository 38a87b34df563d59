// Package state persists per-source read offsets between runs.
//
// # Overview
//
// The poller owns the live offsets. After every cycle it copies them into an
// Offsets value and calls Save, which writes a small JSON document:
//
//	{
//	  "offsets": {
//	    "/var/log/api.log": 18231,
//	    "/var/log/worker.log": 9120
//	  },
//	  "updated": "2026-03-01T10:00:00Z"
//	}
//
// On the next start the recorded offsets seed each source, so bytes that were
// already emitted are not emitted again.
//
// # Atomicity
//
// Save writes to "<path>.tmp" and renames it over the target. A crash during
// Save leaves either the previous or the new document, never a torn one.
//
// # Concurrency Model
//
// Offsets is safe for concurrent use: Get, Snapshot and Updated take the
// read half of an RWMutex, Set and Reset the write half. Save copies the map
// through Snapshot and then briefly takes the write lock to stamp the save
// time. In the normal single-poller setup there is no contention.
//
// # Missing or Corrupt Files
//
// A missing file yields empty offsets. A file that cannot be decoded is
// reported as an error so the caller can decide whether to start fresh.
package state
