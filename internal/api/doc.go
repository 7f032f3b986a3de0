// Package api converts session state into transport DTOs and exposes the
// session operations shared by the HTTP server and the CLI.
//
// SessionService wraps the session store and the workflow launcher; the
// daemon's fiber routes and the `lectern` commands both render its results.
package api
