// Package logs reads the daemon log file for the CLI.
//
// Last returns the final lines of a file together with the byte offset the
// caller should resume from; Follow polls that offset and emits new lines
// until the context ends. Rotated or truncated files restart from the
// beginning.
package logs
