// Package preflight provides readiness checks for the external services,
// binaries and directories lectern depends on.
//
// `lectern check` runs RunAll and prints every result; the daemon reports
// CheckSystemDeps through /api/status. Missing speech recognition
// credentials are reported but never block text sessions.
package preflight
