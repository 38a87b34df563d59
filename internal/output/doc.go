// Package output writes the merged stream to the console and the joined log.
//
// Every accepted line goes through a Multiplexer, which
//
//   - emits a "=== <ms> ms <path> <timestamp>" banner whenever the producing
//     source differs from the previous line's source,
//   - switches terminal color only when the color actually changes,
//   - writes the same bytes to the console and to the joined-log file.
//
// The joined log is truncated when the Multiplexer is created, opened in
// append mode on the first write of a cycle and closed by EndCycle, so other
// tools can read or rotate it between poll cycles. A failed joined-log write
// is logged and never stops console output.
package output
