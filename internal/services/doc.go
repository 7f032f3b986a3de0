// Package services defines shared utilities consumed by the pipeline driver
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, with Kind and Hint to
//     turn a marker into log fields an operator can act on.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
