package clip

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"substweet/internal/logging"
	"substweet/internal/services"
)

type scriptedRunner struct {
	t        *testing.T
	render   []byte
	failStep int
	calls    [][]string
	scratch  []string
}

func (r *scriptedRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string(nil), args...))
	step := len(r.calls)
	for _, arg := range args {
		if filepath.IsAbs(arg) && strings.HasPrefix(filepath.Base(arg), "substweet-") {
			if _, err := os.Stat(arg); err != nil {
				r.t.Errorf("step %d: scratch file %s missing while in use: %v", step, arg, err)
			}
			if !slices.Contains(r.scratch, arg) {
				r.scratch = append(r.scratch, arg)
			}
		}
	}
	if step == r.failStep {
		return nil, errors.New("exit status 1")
	}
	if step == 3 {
		return r.render, nil
	}
	return nil, nil
}

func newRequest() Request {
	return Request{
		Video:     "/media/movie.mkv",
		Subtitles: "/media/movie.srt",
		Start:     "00:00:01.000",
		End:       "00:00:02.500",
		Options:   DefaultOptions(),
	}
}

func TestGenerateRunsThreeStepsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	runner := &scriptedRunner{t: t, render: []byte("GIF89a...;")}
	gen := NewGenerator(runner, dir, logging.NewNop())

	gif, err := gen.Generate(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Equal(gif, []byte("GIF89a...;")) {
		t.Fatalf("unexpected payload %q", gif)
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected three ffmpeg runs, got %d", len(runner.calls))
	}

	slice := strings.Join(runner.calls[0], " ")
	if !strings.Contains(slice, "-ss 00:00:01.000 -to 00:00:02.500 -i /media/movie.srt -y ") {
		t.Fatalf("unexpected slice args %q", slice)
	}
	palette := strings.Join(runner.calls[1], " ")
	if !strings.Contains(palette, "fps=10,scale=506:-1:flags=lanczos,palettegen") {
		t.Fatalf("unexpected palette args %q", palette)
	}
	render := runner.calls[2]
	if render[len(render)-1] != "-" {
		t.Fatalf("expected render to stdout, got %q", render)
	}
	if i := slices.Index(render, "-fs"); i < 0 || render[i+1] != "4700000" {
		t.Fatalf("expected -fs 4700000, got %q", render)
	}
	if !strings.Contains(strings.Join(render, " "), "[x][1:v] paletteuse") {
		t.Fatalf("expected paletteuse graph, got %q", render)
	}

	assertCleaned(t, dir, runner.scratch)
}

func TestGenerateCleansUpOnFailure(t *testing.T) {
	for step := 1; step <= 3; step++ {
		dir := t.TempDir()
		runner := &scriptedRunner{t: t, failStep: step}
		gen := NewGenerator(runner, dir, logging.NewNop())

		_, err := gen.Generate(context.Background(), newRequest())
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("step %d: expected external tool error, got %v", step, err)
		}
		if services.ExitCode(err) != services.ExitRun {
			t.Fatalf("step %d: expected run failure exit code", step)
		}
		if len(runner.calls) != step {
			t.Fatalf("step %d: expected no retry or later steps, got %d calls", step, len(runner.calls))
		}
		assertCleaned(t, dir, runner.scratch)
	}
}

func TestGenerateNeverExceedsMaxBytes(t *testing.T) {
	for _, limit := range []int64{1, 10, 64, 4096} {
		runner := &scriptedRunner{t: t, render: bytes.Repeat([]byte{0x21}, 5000)}
		gen := NewGenerator(runner, t.TempDir(), logging.NewNop())
		req := newRequest()
		req.Options.MaxBytes = limit

		gif, err := gen.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("limit %d: Generate: %v", limit, err)
		}
		if int64(len(gif)) > limit {
			t.Fatalf("limit %d: got %d bytes", limit, len(gif))
		}
		if gif[len(gif)-1] != gifTrailer {
			t.Fatalf("limit %d: expected trailer byte", limit)
		}
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	runner := &scriptedRunner{t: t}
	gen := NewGenerator(runner, t.TempDir(), logging.NewNop())
	req := newRequest()
	req.Options.Width = 0
	if _, err := gen.Generate(context.Background(), req); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("ffmpeg should not run with invalid options")
	}
}

func TestEscapeFilterPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/substweet-1.srt":  "/tmp/substweet-1.srt",
		`C:\Temp\a.srt`:         `C\\:\\\\Temp\\\\a.srt`,
		`relative\dir\file.srt`: `relative\\\\dir\\\\file.srt`,
	}
	for in, want := range cases {
		if got := EscapeFilterPath(in); got != want {
			t.Fatalf("EscapeFilterPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeOnlyAppliesToFilterGraph(t *testing.T) {
	req := newRequest()
	req.Subtitles = `C:\subs\movie.srt`
	srt := `C:\Temp\slice.srt`
	args := SliceArgs(req, srt)
	if !slices.Contains(args, `C:\subs\movie.srt`) || !slices.Contains(args, srt) {
		t.Fatalf("plain arguments must not be escaped: %q", args)
	}
	palette := PaletteArgs(req, srt, `C:\Temp\pal.png`)
	if !slices.Contains(palette, `C:\Temp\pal.png`) {
		t.Fatalf("palette output path must not be escaped: %q", palette)
	}
	if !strings.Contains(strings.Join(palette, " "), "subtitles="+EscapeFilterPath(srt)+",") {
		t.Fatalf("filter graph must carry escaped path: %q", palette)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate([]byte("abc"), 5); string(got) != "abc" {
		t.Fatalf("short payload should be untouched, got %q", got)
	}
	if got := Truncate([]byte("abcdef"), 3); string(got) != "ab;" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate([]byte("abc"), 0); got != nil {
		t.Fatalf("expected nil for zero limit, got %q", got)
	}
}

func assertCleaned(t *testing.T, dir string, scratch []string) {
	t.Helper()
	for _, path := range scratch {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("scratch file %s not removed: %v", path, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty temp dir, found %d entries", len(entries))
	}
}
