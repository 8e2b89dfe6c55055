package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestResolveFFprobeSibling(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	ffprobePath := filepath.Join(tmp, executableName("ffprobe"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	if err := os.WriteFile(ffprobePath, script, 0o755); err != nil {
		t.Fatalf("write ffprobe sibling: %v", err)
	}

	if got := ResolveFFprobe(ffmpegPath, "ffprobe"); got != ffprobePath {
		t.Fatalf("expected sibling ffprobe %q, got %q", ffprobePath, got)
	}
}

func TestResolveFFprobeExplicitWins(t *testing.T) {
	if got := ResolveFFprobe("ffmpeg", "/opt/tools/ffprobe"); got != "/opt/tools/ffprobe" {
		t.Fatalf("expected configured ffprobe, got %q", got)
	}
}

func TestResolveFFprobeFallsBackToName(t *testing.T) {
	t.Setenv("PATH", "")
	if got := ResolveFFprobe(filepath.Join(t.TempDir(), "ffmpeg"), ""); got != "ffprobe" {
		t.Fatalf("expected bare ffprobe fallback, got %q", got)
	}
}

func TestTranscoderRequirements(t *testing.T) {
	reqs := TranscoderRequirements("ffmpeg", "ffprobe")
	if len(reqs) != 2 {
		t.Fatalf("expected two requirements, got %d", len(reqs))
	}
	if reqs[0].Optional || !reqs[1].Optional {
		t.Fatalf("expected ffmpeg required and ffprobe optional: %#v", reqs)
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
