// Package app provides the orchestration layer for jointail.
//
// # Overview
//
// This package wires configuration, filtering, projection, output and the
// offset checkpoint into a single poll loop. It serves as the composition
// root where all dependencies are initialized and connected.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Load configuration (TOML or YAML) and apply command-line overrides
//  2. Expand glob sources into concrete files
//  3. Compile include/exclude rules and output field transforms
//  4. Seed each source offset from the checkpoint or its start mode
//  5. Truncate the joined log and build the output multiplexer
//  6. Run the poller, optionally behind the follow viewer
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config file
//	       ├─────> ExpandSources()        Resolve globs
//	       ├─────> predicate.New()        Compile filters
//	       ├─────> projection.New()       Compile fields
//	       ├─────> output.New()           Truncate joined log
//	       └─────> Poller.Run()           Poll until cancelled
//
//	Poll Cycle:
//	┌─────────────────────────────────────────┐
//	│ sleep cycle interval                    │
//	│  for each source:                       │
//	│   ├─> sleep file interval               │
//	│   ├─> logtail.Drain() new full lines    │
//	│   ├─> record.Parse() → filter → project │
//	│   └─> Multiplexer.Emit()                │
//	│  Multiplexer.EndCycle()  close joined   │
//	│  Offsets.Save()          checkpoint     │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid, or an explicit path missing
//   - No sources left after expansion
//   - Rule or transform expressions that fail to compile
//   - A projector with no output fields
//
// Recoverable errors (logged, polling continues):
//   - Source file missing or unreadable
//   - Joined log cannot be opened or written
//   - Checkpoint save failures
//
// Lines that are neither JSON objects nor key=value text are dropped
// silently and only counted.
package app
