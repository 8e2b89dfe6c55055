package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"substweet/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are filled with placeholders; no ntfy topic is configured.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "data", "history.db")
	cfgVal.Twitter.ConsumerKey = "ck"
	cfgVal.Twitter.ConsumerSecret = "cs"
	cfgVal.Twitter.AccessToken = "at"
	cfgVal.Twitter.AccessSecret = "as"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStateFile enables resumable posting with a state file under the temp root.
func WithStateFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.StateFile = filepath.Join(b.baseDir, "state", "substweet.json")
	}
}

// WithAPIBase points every Twitter endpoint at a test server.
func WithAPIBase(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Twitter.APIBaseURL = url
		b.cfg.Twitter.UploadBaseURL = url
		b.cfg.Twitter.WebBaseURL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// points the ffmpeg config at them. If names is empty, ffmpeg and ffprobe are
// stubbed with scripts that exit 0.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			target := WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
			switch name {
			case "ffmpeg":
				b.cfg.FFmpeg.Binary = target
			case "ffprobe":
				b.cfg.FFmpeg.FFprobeBinary = target
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
