// Package services defines shared utilities consumed by the posting pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, caption IDs, and component names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into configuration problems (exit code 2) and run failures (exit code 1).
//
// Use these helpers when wiring new pipeline code so error handling and
// observability stay uniform.
package services
