// Command lectern turns lecture videos and raw transcripts into study notes
// and knowledge cues.
//
// `lectern serve` runs the daemon and its HTTP API. `lectern run` drives one
// session synchronously in the foreground. The remaining commands inspect
// sessions in the local database, check dependencies, and manage the
// configuration file.
package main
