// Package transcript holds the Segment type shared by both acquisition paths
// and the timestamp-aware splitter for user-supplied transcript text.
package transcript
