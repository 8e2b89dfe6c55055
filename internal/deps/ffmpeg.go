package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe picks the ffprobe binary paired with the configured ffmpeg.
//
// An explicitly configured ffprobe path wins when it is not the bare default
// name. Otherwise an ffprobe sitting next to a custom ffmpeg build is
// preferred, so static bundles stay consistent, and the bare name is
// resolved from PATH as the last resort.
func ResolveFFprobe(ffmpegBinary, ffprobeBinary string) string {
	configured := strings.TrimSpace(ffprobeBinary)
	if configured != "" && configured != "ffprobe" {
		return configured
	}
	if ffmpeg := strings.TrimSpace(ffmpegBinary); ffmpeg != "" {
		if resolved, err := exec.LookPath(ffmpeg); err == nil {
			if candidate, ok := siblingBinary(resolved, "ffprobe"); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					return candidate
				}
			}
		}
	}
	return "ffprobe"
}

func siblingBinary(path, name string) (string, bool) {
	if path == "" {
		return "", false
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(path), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
