package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"substweet/internal/media/ffprobe"
	"substweet/internal/services"
)

type fakeRunner struct {
	out   []byte
	err   error
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string(nil), args...))
	return f.out, f.err
}

func TestCheckCapabilities(t *testing.T) {
	ok := &fakeRunner{out: []byte("ffmpeg version 6.1\nconfiguration: --enable-gpl --enable-libass --enable-libx264\n")}
	if err := CheckCapabilities(context.Background(), ok); err != nil {
		t.Fatalf("expected libass build to pass, got %v", err)
	}

	missing := &fakeRunner{out: []byte("configuration: --enable-gpl\n")}
	err := CheckCapabilities(context.Background(), missing)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("expected usage exit code, got %d", services.ExitCode(err))
	}

	broken := &fakeRunner{err: errors.New("exec: not found")}
	if err := CheckCapabilities(context.Background(), broken); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unusable binary, got %v", err)
	}
}

func TestExtractSubtitlesArgs(t *testing.T) {
	runner := &fakeRunner{out: []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n")}
	out, err := ExtractSubtitles(context.Background(), runner, nil, "movie.mkv")
	if err != nil {
		t.Fatalf("ExtractSubtitles: %v", err)
	}
	if !strings.Contains(string(out), "hi") {
		t.Fatalf("unexpected output %q", out)
	}
	got := strings.Join(runner.calls[0], " ")
	if !strings.Contains(got, "-i movie.mkv -c:s text -f srt -") {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestExtractSubtitlesRejectsUnsubtitledVideo(t *testing.T) {
	runner := &fakeRunner{}
	prober := ProbeFunc(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil
	})
	_, err := ExtractSubtitles(context.Background(), runner, prober, "movie.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("ffmpeg should not run when the probe finds no subtitle stream")
	}
}

func TestExtractSubtitlesIgnoresProbeFailure(t *testing.T) {
	runner := &fakeRunner{out: []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n")}
	prober := ProbeFunc(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("ffprobe missing")
	})
	if _, err := ExtractSubtitles(context.Background(), runner, prober, "movie.mkv"); err != nil {
		t.Fatalf("expected extraction to proceed, got %v", err)
	}
}

func TestExtractSubtitlesFailureIsValidation(t *testing.T) {
	runner := &fakeRunner{err: &ExitError{Code: 1, Stderr: "Output file #0 does not contain any stream"}}
	_, err := ExtractSubtitles(context.Background(), runner, nil, "movie.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected the ffmpeg exit to remain visible, got %v", err)
	}
}

func TestExtractSubtitlesEmptyOutput(t *testing.T) {
	runner := &fakeRunner{out: []byte("  \n")}
	if _, err := ExtractSubtitles(context.Background(), runner, nil, "movie.mkv"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty track, got %v", err)
	}
}

func TestExecRunnerCapturesStdoutAndStderr(t *testing.T) {
	dir := t.TempDir()
	okStub := filepath.Join(dir, "ffmpeg-ok")
	if err := os.WriteFile(okStub, []byte("#!/bin/sh\necho \"$@\"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	out, err := NewRunner(okStub).Run(context.Background(), "-version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "-version" {
		t.Fatalf("unexpected stdout %q", out)
	}

	failStub := filepath.Join(dir, "ffmpeg-fail")
	if err := os.WriteFile(failStub, []byte("#!/bin/sh\necho 'No such filter: subtitles' >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err = NewRunner(failStub).Run(context.Background(), "-i", "x")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || !strings.Contains(exitErr.Stderr, "No such filter") {
		t.Fatalf("unexpected exit error %#v", exitErr)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected ExitError to match ErrExternalTool")
	}
}

func TestNewRunnerDefaultsBinary(t *testing.T) {
	if NewRunner("  ").Binary != "ffmpeg" {
		t.Fatal("expected default ffmpeg binary")
	}
}
