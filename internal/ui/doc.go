// Package ui provides the optional full-screen follow viewer for jointail.
//
// The viewer is a Bubble Tea program that owns the terminal while the poller
// runs in its own goroutine. The output multiplexer writes to a Viewer the
// same way it writes to stdout; complete lines are handed to the program
// with Program.Send, so the model is only ever touched by the Bubble Tea
// event loop.
//
// # Key Bindings
//
//   - Space: Toggle follow mode (auto-scroll to newest line)
//   - g / G: Jump to top / bottom (bottom resumes following)
//   - j / k, arrows, pgup/pgdown, ctrl+u/ctrl+d: Scroll
//   - T: Cycle theme
//   - ?: Toggle full help
//   - q or Ctrl+C: Quit (stops the poller)
//
// Theme and follow state are persisted through the prefs package.
package ui
