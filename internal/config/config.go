package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	StateFile string `toml:"state_file"`
	HistoryDB string `toml:"history_db"`
	LogDir    string `toml:"log_dir"`
	TempDir   string `toml:"temp_dir"`
}

// FFmpeg contains transcoder binary locations.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Clip contains the GIF rendering knobs. Width or height of -1 lets the
// transcoder pick that dimension from the aspect ratio.
type Clip struct {
	FPS      int   `toml:"fps"`
	Width    int   `toml:"width"`
	Height   int   `toml:"height"`
	MaxBytes int64 `toml:"max_bytes"`
}

// Posting contains the scheduler policy.
type Posting struct {
	Thread bool `toml:"thread"`
	// Delay is a Go duration string ("90s", "1h"). Empty leaves pacing to the
	// publisher's rate-limit handling.
	Delay string `toml:"delay"`
	// Limit caps the number of posts per run; negative means unlimited.
	Limit int `toml:"limit"`
}

// Twitter contains publisher endpoints and credential sources.
type Twitter struct {
	APIBaseURL      string `toml:"api_base_url"`
	UploadBaseURL   string `toml:"upload_base_url"`
	WebBaseURL      string `toml:"web_base_url"`
	CredentialsFile string `toml:"credentials_file"`
	RequestTimeout  int    `toml:"request_timeout"`
	PostsPerWindow  int    `toml:"posts_per_window"`
	WindowMinutes   int    `toml:"window_minutes"`

	ConsumerKey    string `toml:"-"`
	ConsumerSecret string `toml:"-"`
	AccessToken    string `toml:"-"`
	AccessSecret   string `toml:"-"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for substweet.
//
// Configuration sections by subsystem:
//   - Paths: resume state, history ledger, logs and scratch space
//   - FFmpeg: transcoder binaries
//   - Clip: GIF frame rate, scale and size cap
//   - Posting: thread mode, inter-post delay and per-run post budget
//   - Twitter: API endpoints, credentials file and client-side pacing
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Clip          Clip          `toml:"clip"`
	Posting       Posting       `toml:"posting"`
	Twitter       Twitter       `toml:"twitter"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("substweet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a posting run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.TempDir}
	if c.Paths.StateFile != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.StateFile))
	}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PostDelay returns the fixed inter-post delay. The boolean is false when
// pacing is left to the publisher.
func (c *Config) PostDelay() (time.Duration, bool) {
	raw := strings.TrimSpace(c.Posting.Delay)
	if raw == "" {
		return 0, false
	}
	d, err := parseDelay(raw)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// parseDelay accepts a Go duration ("90s", "1h") or a bare number of seconds.
func parseDelay(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// HasCredentials reports whether all four publisher secrets are present.
func (c *Config) HasCredentials() bool {
	return c.Twitter.ConsumerKey != "" && c.Twitter.ConsumerSecret != "" &&
		c.Twitter.AccessToken != "" && c.Twitter.AccessSecret != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
