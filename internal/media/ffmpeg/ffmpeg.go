package ffmpeg

import (
	"context"
	"fmt"
	"strings"

	"substweet/internal/media/ffprobe"
	"substweet/internal/services"
)

const libassFlag = "enable-libass"

// CheckCapabilities verifies the ffmpeg build can burn in subtitles.
func CheckCapabilities(ctx context.Context, runner Runner) error {
	out, err := runner.Run(ctx, "-hide_banner", "-version")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "ffmpeg", "capabilities", "ffmpeg is not usable", err)
	}
	if !strings.Contains(string(out), libassFlag) {
		return services.Wrap(services.ErrConfiguration, "ffmpeg", "capabilities", "ffmpeg must be compiled with --enable-libass", nil)
	}
	return nil
}

// Prober inspects a media file. ffprobe.Inspect satisfies it through ProbeFunc.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return f(ctx, path)
}

// BinaryProber returns a Prober backed by the ffprobe binary.
func BinaryProber(binary string) Prober {
	return ProbeFunc(func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	})
}

// ExtractSubtitles returns the first subtitle track of video as SRT text.
// When prober is non-nil the file is inspected first so a video with no
// subtitle stream is reported as a validation error rather than an opaque
// ffmpeg failure. A probe that fails outright is ignored and extraction is
// attempted anyway.
func ExtractSubtitles(ctx context.Context, runner Runner, prober Prober, video string) ([]byte, error) {
	if prober != nil {
		if result, err := prober.Probe(ctx, video); err == nil && result.SubtitleStreamCount() == 0 {
			return nil, services.Wrap(services.ErrValidation, "ffmpeg", "extract subtitles", fmt.Sprintf("%s does not contain a subtitle track", video), nil)
		}
	}
	out, err := runner.Run(ctx, "-hide_banner", "-loglevel", "error", "-i", video, "-c:s", "text", "-f", "srt", "-")
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "extract subtitles", fmt.Sprintf("%s does not contain a usable subtitle track", video), err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "extract subtitles", fmt.Sprintf("%s produced an empty subtitle track", video), nil)
	}
	return out, nil
}
