// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; helper methods count subtitle and
// video streams and parse the container duration. Subtitle extraction uses it
// to fail early, with a clear message, on inputs that carry no text track.
package ffprobe
