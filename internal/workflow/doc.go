// Package workflow launches session runs and keeps track of them.
//
// Each run executes on its own goroutine, detached from the caller's
// cancellation. The Manager refuses a second run of a session that is
// already active, first through an in-process table and then through a
// per-session flock under the state directory, so a CLI run and the daemon
// cannot drive the same session at once. Wait lets the daemon drain active
// runs during shutdown.
package workflow
