// Package stages implements the four content generation stages run after a
// transcript is acquired: A1 (transcript pre-processing and metadata), A2
// (key information extraction), B (study note) and D (knowledge cues).
//
// Each stage is a Processor returning an opaque JSON document that the
// pipeline persists verbatim and hands to later stages. The LLM-backed set
// validates the keys later stages rely on, pins videoId to the source ID and
// replaces timestamp placeholders with the current time.
package stages
