package preflight

import (
	"context"
	"path/filepath"

	"substweet/internal/config"
	"substweet/internal/media/ffmpeg"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check. The ntfy check only runs when a
// topic is configured; runner may be nil to skip the transcoder check.
func RunAll(ctx context.Context, cfg *config.Config, runner ffmpeg.Runner) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)}
	if cfg.Paths.StateFile != "" {
		results = append(results, CheckDirectoryAccess("State directory", filepath.Dir(cfg.Paths.StateFile)))
	}
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}
	if runner != nil {
		results = append(results, CheckTranscoder(ctx, runner))
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
