package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"substweet/internal/captions"
	"substweet/internal/clip"
	"substweet/internal/config"
	"substweet/internal/deps"
	"substweet/internal/history"
	"substweet/internal/logging"
	"substweet/internal/media/ffmpeg"
	"substweet/internal/notifications"
	"substweet/internal/poststate"
	"substweet/internal/publisher"
	"substweet/internal/scheduler"
	"substweet/internal/services"
)

type postFlags struct {
	thread   bool
	delay    string
	limit    int
	state    string
	fps      int
	width    int
	height   int
	maxBytes int64
	ffmpeg   string
	noColor  bool
}

func newPostCommand(ctx *commandContext) *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "post <video> [subtitles.srt]",
		Short: "Render each caption as a GIF and post it",
		Long: `Render each caption window of a video as an animated GIF with burned-in
subtitles and post it with the caption text.

Without a subtitles file the video's first embedded subtitle track is used.
With a state file configured, the run resumes at the caption where the
previous run stopped.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyPostFlags(cmd, cfg, flags); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			subtitles := ""
			if len(args) > 1 {
				subtitles = args[1]
			}
			run := postRun{
				cfg:       cfg,
				logger:    logger,
				video:     args[0],
				subtitles: subtitles,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
				color:     !flags.noColor && isTerminal(cmd.OutOrStdout()),
				notifier:  notifications.NewService(cfg),
			}
			return run.execute(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&flags.thread, "thread", "t", false, "Reply to the previous post so the run forms one thread")
	cmd.Flags().StringVarP(&flags.delay, "delay", "d", "", "Fixed delay between posts (e.g. 90s, 1h, or bare seconds); empty follows API rate limits")
	cmd.Flags().IntVarP(&flags.limit, "num", "n", -1, "Maximum number of posts this run (-1 for unlimited)")
	cmd.Flags().StringVarP(&flags.state, "state", "s", "", "State file used to resume between runs")
	cmd.Flags().IntVar(&flags.fps, "fps", 0, "GIF frame rate")
	cmd.Flags().IntVar(&flags.width, "width", 0, "GIF width in pixels (-1 to derive from height)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "GIF height in pixels (-1 to derive from width)")
	cmd.Flags().Int64Var(&flags.maxBytes, "max-bytes", 0, "Upper bound on the GIF size in bytes")
	cmd.Flags().StringVar(&flags.ffmpeg, "ffmpeg", "", "ffmpeg binary to use")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored result lines")
	return cmd
}

// applyPostFlags overlays explicitly set flags onto cfg and revalidates.
func applyPostFlags(cmd *cobra.Command, cfg *config.Config, flags postFlags) error {
	changed := cmd.Flags().Changed
	if changed("thread") {
		cfg.Posting.Thread = flags.thread
	}
	if changed("delay") {
		cfg.Posting.Delay = flags.delay
	}
	if changed("num") {
		cfg.Posting.Limit = flags.limit
	}
	if changed("state") {
		path, err := config.ExpandPath(flags.state)
		if err != nil {
			return services.Wrap(services.ErrValidation, "post", "flags", "resolve state path", err)
		}
		cfg.Paths.StateFile = path
	}
	if changed("fps") {
		cfg.Clip.FPS = flags.fps
	}
	if changed("width") {
		cfg.Clip.Width = flags.width
	}
	if changed("height") {
		cfg.Clip.Height = flags.height
	}
	if changed("max-bytes") {
		cfg.Clip.MaxBytes = flags.maxBytes
	}
	if changed("ffmpeg") {
		cfg.FFmpeg.Binary = flags.ffmpeg
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "post", "flags", "", err)
	}
	return nil
}

// postRun holds everything one `post` invocation needs.
type postRun struct {
	cfg       *config.Config
	logger    *slog.Logger
	video     string
	subtitles string
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	color     bool
	notifier  notifications.Service
}

func (r postRun) execute(ctx context.Context) error {
	started := time.Now()
	summary, err := r.post(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(r.logger, "posting run aborted", "post_aborted",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, abortHint(err)),
			)
			r.notify(ctx, notifications.EventError, notifications.Payload{"context": "posting " + filepath.Base(r.video), "error": err})
		}
		return err
	}

	r.notify(ctx, notifications.EventRunCompleted, notifications.Payload{
		"video":           filepath.Base(r.video),
		"posted":          summary.Posted,
		"failed":          summary.Failed,
		"durationSeconds": int(time.Since(started).Seconds()),
		"resumeAt":        resumeLabel(summary),
	})
	fmt.Fprintf(r.out, "Posted %d of %d attempted captions (%d failed, %d skipped)\n",
		summary.Posted, summary.Attempted, summary.Failed, summary.Skipped)
	return nil
}

func (r postRun) post(ctx context.Context) (scheduler.Summary, error) {
	cfg := r.cfg
	runner := ffmpeg.NewRunner(cfg.FFmpeg.Binary)
	if err := ffmpeg.CheckCapabilities(ctx, runner); err != nil {
		return scheduler.Summary{}, err
	}
	if _, err := os.Stat(r.video); err != nil {
		return scheduler.Summary{}, services.Wrap(services.ErrValidation, "post", "open video", r.video, err)
	}

	creds, err := resolveCredentials(cfg, r.in, r.errOut)
	if err != nil {
		return scheduler.Summary{}, err
	}
	delay, fixedDelay := cfg.PostDelay()
	client, err := publisher.NewClient(creds, publisher.Config{
		APIBaseURL:      cfg.Twitter.APIBaseURL,
		UploadBaseURL:   cfg.Twitter.UploadBaseURL,
		WebBaseURL:      cfg.Twitter.WebBaseURL,
		Timeout:         time.Duration(cfg.Twitter.RequestTimeout) * time.Second,
		WaitOnRateLimit: !fixedDelay,
		PostsPerWindow:  cfg.Twitter.PostsPerWindow,
		Window:          time.Duration(cfg.Twitter.WindowMinutes) * time.Minute,
	}, r.logger)
	if err != nil {
		return scheduler.Summary{}, err
	}
	if _, err := client.VerifyCredentials(ctx); err != nil {
		return scheduler.Summary{}, err
	}

	raw, subtitles, cleanup, err := r.loadCaptions(ctx, runner)
	if err != nil {
		return scheduler.Summary{}, err
	}
	defer cleanup()

	state := poststate.NewStore(cfg.Paths.StateFile, r.logger)
	unlock, err := state.Lock()
	if err != nil {
		return scheduler.Summary{}, err
	}
	defer unlock()

	collab := scheduler.Deps{
		Clips:     clip.NewGenerator(runner, cfg.Paths.TempDir, r.logger),
		Publisher: client,
		Reporter:  newProgressPrinter(r.out, r.color),
		Logger:    r.logger,
	}
	if state.Enabled() {
		collab.State = state
	}
	if ledger := r.openHistory(); ledger != nil {
		defer ledger.Close()
		collab.Recorder = ledger
	}

	sched, err := scheduler.New(scheduler.Options{
		Video:     r.video,
		Subtitles: subtitles,
		Thread:    cfg.Posting.Thread,
		Delay:     delay,
		Limit:     cfg.Posting.Limit,
		Clip: clip.Options{
			FPS:      cfg.Clip.FPS,
			Width:    cfg.Clip.Width,
			Height:   cfg.Clip.Height,
			MaxBytes: cfg.Clip.MaxBytes,
		},
	}, collab)
	if err != nil {
		return scheduler.Summary{}, err
	}
	return sched.Run(ctx, captions.Parse(raw))
}

// loadCaptions reads the explicit subtitles file, or extracts the embedded
// track into a scratch file that cleanup removes.
func (r postRun) loadCaptions(ctx context.Context, runner ffmpeg.Runner) ([]byte, string, func(), error) {
	noop := func() {}
	if strings.TrimSpace(r.subtitles) != "" {
		raw, err := os.ReadFile(r.subtitles)
		if err != nil {
			return nil, "", noop, services.Wrap(services.ErrValidation, "post", "read subtitles", r.subtitles, err)
		}
		return raw, r.subtitles, noop, nil
	}

	var prober ffmpeg.Prober
	for _, status := range deps.CheckBinaries(deps.TranscoderRequirements(r.cfg.FFmpeg.Binary, r.cfg.FFmpeg.FFprobeBinary)) {
		if status.Name == "FFprobe" && status.Available {
			prober = ffmpeg.BinaryProber(status.Command)
		}
	}
	raw, err := ffmpeg.ExtractSubtitles(ctx, runner, prober, r.video)
	if err != nil {
		return nil, "", noop, err
	}

	f, err := os.CreateTemp(r.cfg.Paths.TempDir, "substweet-track-*.srt")
	if err != nil {
		return nil, "", noop, fmt.Errorf("create subtitle scratch file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("subtitle scratch cleanup failed", logging.String("path", path), logging.Error(err))
		}
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		cleanup()
		return nil, "", noop, fmt.Errorf("write subtitle scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, "", noop, fmt.Errorf("close subtitle scratch file: %w", err)
	}
	r.logger.Info("extracted embedded subtitle track", logging.String("path", path), logging.Int("bytes", len(raw)))
	return raw, path, cleanup, nil
}

// openHistory returns nil when the ledger is disabled or unusable; posting
// does not depend on it.
func (r postRun) openHistory() *history.Store {
	path := strings.TrimSpace(r.cfg.Paths.HistoryDB)
	if path == "" {
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		logging.WarnWithContext(r.logger, "history ledger unavailable", "history_open_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db or remove an incompatible ledger"),
			logging.String(logging.FieldImpact, "attempts from this run are not recorded"),
		)
		return nil
	}
	return store
}

func (r postRun) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		r.logger.Warn("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

// abortHint names the operator's next step for a run-ending error.
func abortHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "fix the configuration or credentials, then rerun substweet post"
	case errors.Is(err, services.ErrValidation):
		return "check the video, captions and flags, then rerun substweet post"
	case errors.Is(err, services.ErrTimeout):
		return "the API did not answer in time; rerun substweet post to resume"
	default:
		return "rerun substweet post to resume from the saved state"
	}
}

func resumeLabel(summary scheduler.Summary) string {
	if !summary.Saved || summary.LastID == 0 {
		return ""
	}
	return fmt.Sprint(summary.LastID)
}
