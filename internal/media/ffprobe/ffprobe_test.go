package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng"}},
    {"index": 3, "codec_name": "ass", "codec_type": "subtitle"}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 4, "duration": "5400.250000", "format_name": "matroska,webm"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.SubtitleStreamCount() != 2 {
		t.Fatalf("expected 2 subtitle streams, got %d", result.SubtitleStreamCount())
	}
	if (Result{Streams: result.Streams[:2]}).SubtitleStreamCount() != 0 {
		t.Fatal("expected video and audio streams not to count as subtitles")
	}
	if result.Format.FormatName != "matroska,webm" {
		t.Fatalf("unexpected format %q", result.Format.FormatName)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n" + sampleJSON + "\nJSON\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), stub, "movie.mkv")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.Filename != "movie.mkv" {
		t.Fatalf("unexpected filename %q", result.Format.Filename)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
