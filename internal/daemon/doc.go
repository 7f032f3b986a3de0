// Package daemon coordinates the long-running lectern process.
//
// It wires configuration, session storage, the workflow manager, and the
// fiber HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. On start it fails sessions that a previous process
// left mid-run; on stop it closes the API first and then gives active runs
// the configured grace period to finish.
//
// Keep orchestration logic here: the pipeline itself lives in
// internal/pipeline and launches go through internal/workflow.
package daemon
