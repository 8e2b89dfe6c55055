package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"substweet/internal/config"
	"substweet/internal/testsupport"
)

// fakeFFmpeg answers -version with libass support, prints SRT for the
// extraction call, and prints a tiny GIF for the render call.
const fakeFFmpeg = `for a in "$@"; do last="$a"; done
case " $* " in
*" -version "*) echo "configuration: --enable-gpl --enable-libass"; exit 0 ;;
*" -f srt "*) printf '1\n00:00:01,000 --> 00:00:02,000\nfrom the track\n'; exit 0 ;;
esac
if [ "$last" = "-" ]; then printf 'GIF89a;'; fi
exit 0`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	api        *fakeTwitter
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	api := newFakeTwitter(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithAPIBase(api.server.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	cfg.FFmpeg.Binary = testsupport.WriteScript(t, filepath.Join(base, "bin", "ffmpeg"), fakeFFmpeg)
	if cfg.FFmpeg.FFprobeBinary == "ffprobe" {
		cfg.FFmpeg.FFprobeBinary = filepath.Join(base, "missing", "ffprobe")
	}
	cfg.Logging.Level = "error"

	t.Setenv(config.EnvConsumerKey, cfg.Twitter.ConsumerKey)
	t.Setenv(config.EnvConsumerSecret, cfg.Twitter.ConsumerSecret)
	t.Setenv(config.EnvAccessToken, cfg.Twitter.AccessToken)
	t.Setenv(config.EnvAccessSecret, cfg.Twitter.AccessSecret)

	configPath := filepath.Join(base, "substweet.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, api: api}
}

func runCLI(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_file = %q
history_db = %q
log_dir = %q
temp_dir = %q

[ffmpeg]
binary = %q
ffprobe_binary = %q

[posting]
thread = %t
delay = %q
limit = %d

[twitter]
api_base_url = %q
upload_base_url = %q
web_base_url = %q
posts_per_window = 0

[logging]
level = %q
`,
		cfg.Paths.StateFile,
		cfg.Paths.HistoryDB,
		cfg.Paths.LogDir,
		cfg.Paths.TempDir,
		cfg.FFmpeg.Binary,
		cfg.FFmpeg.FFprobeBinary,
		cfg.Posting.Thread,
		cfg.Posting.Delay,
		cfg.Posting.Limit,
		cfg.Twitter.APIBaseURL,
		cfg.Twitter.UploadBaseURL,
		cfg.Twitter.WebBaseURL,
		cfg.Logging.Level,
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// fakeTwitter is a minimal REST API double.
type fakeTwitter struct {
	server *httptest.Server

	mu       sync.Mutex
	statuses []map[string]string
	failNext bool
}

func newFakeTwitter(t *testing.T) *fakeTwitter {
	t.Helper()
	f := &fakeTwitter{}
	mux := http.NewServeMux()
	mux.HandleFunc("/account/verify_credentials.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id_str":"42","screen_name":"captionbot"}`)
	})
	mux.HandleFunc("/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"media_id_string":"m1"}`)
	})
	mux.HandleFunc("/statuses/update.json", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failNext {
			f.failNext = false
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"errors":[{"message":"Status is a duplicate.","code":187}]}`)
			return
		}
		f.statuses = append(f.statuses, map[string]string{
			"status":                r.PostForm.Get("status"),
			"media_ids":             r.PostForm.Get("media_ids"),
			"in_reply_to_status_id": r.PostForm.Get("in_reply_to_status_id"),
		})
		fmt.Fprintf(w, `{"id_str":"%d","user":{"screen_name":"captionbot"}}`, 100+len(f.statuses))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTwitter) posted() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.statuses...)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
