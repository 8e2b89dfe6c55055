// Package ffmpeg wraps the ffmpeg binary behind a small Runner interface.
//
// The exec-backed runner captures stdout for callers that stream output (GIF
// render, subtitle extraction) and keeps stderr for error reporting. Helpers
// check the build for libass subtitle burn-in and pull the embedded subtitle
// track out of a video as SRT text.
package ffmpeg
