// Package pipeline drives one learning session from input to terminal
// status.
//
// A run validates that exactly one input was supplied, acquires a
// transcript (download, audio extraction and speech recognition for a video,
// or the splitter for text), persists the segments and then runs the
// generation stages A1, A2, B and D in order. Every step records a progress
// status first. The first failure is mapped to one error status, logged once
// and recorded; nothing is written after it. The per-run temp directory is
// removed on every exit path.
package pipeline
