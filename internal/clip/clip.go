package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"substweet/internal/logging"
	"substweet/internal/media/ffmpeg"
	"substweet/internal/services"
)

// AutoScale lets ffmpeg derive a dimension from the aspect ratio.
const AutoScale = -1

const (
	DefaultFPS      = 10
	DefaultWidth    = 506
	DefaultHeight   = AutoScale
	DefaultMaxBytes = 4_700_000

	gifTrailer = 0x3B
)

// Options controls the rendered GIF.
type Options struct {
	FPS      int
	Width    int
	Height   int
	MaxBytes int64
}

// DefaultOptions returns the rendering defaults: 10 fps, 506 px wide, height
// derived, and a cap comfortably under a 5 MB upload limit.
func DefaultOptions() Options {
	return Options{FPS: DefaultFPS, Width: DefaultWidth, Height: DefaultHeight, MaxBytes: DefaultMaxBytes}
}

// Validate reports option values ffmpeg would reject.
func (o Options) Validate() error {
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", o.FPS)
	}
	for name, v := range map[string]int{"width": o.Width, "height": o.Height} {
		if v != AutoScale && v <= 0 {
			return fmt.Errorf("%s must be positive or %d, got %d", name, AutoScale, v)
		}
	}
	if o.MaxBytes <= 0 {
		return fmt.Errorf("max bytes must be positive, got %d", o.MaxBytes)
	}
	return nil
}

func (o Options) filters() string {
	return fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos", o.FPS, o.Width, o.Height)
}

// Request names one caption window to render.
type Request struct {
	Video     string
	Subtitles string
	Start     string
	End       string
	Options   Options
}

// Generator renders clips with an ffmpeg Runner.
type Generator struct {
	runner  ffmpeg.Runner
	tempDir string
	logger  *slog.Logger
}

// NewGenerator constructs a Generator. An empty tempDir uses the OS default.
func NewGenerator(runner ffmpeg.Runner, tempDir string, logger *slog.Logger) *Generator {
	return &Generator{
		runner:  runner,
		tempDir: tempDir,
		logger:  logging.NewComponentLogger(logger, "clip"),
	}
}

// Generate renders req and returns the GIF bytes, never more than
// req.Options.MaxBytes long.
func (g *Generator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if g == nil || g.runner == nil {
		return nil, errors.New("clip generator unavailable")
	}
	if err := req.Options.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "clip", "options", err.Error(), nil)
	}
	if strings.TrimSpace(req.Video) == "" || strings.TrimSpace(req.Subtitles) == "" {
		return nil, services.Wrap(services.ErrValidation, "clip", "request", "video and subtitles are required", nil)
	}

	srt, err := g.tempFile("*.srt")
	if err != nil {
		return nil, err
	}
	defer g.remove(srt)
	palette, err := g.tempFile("*.png")
	if err != nil {
		return nil, err
	}
	defer g.remove(palette)

	if _, err := g.runner.Run(ctx, SliceArgs(req, srt)...); err != nil {
		return nil, wrapStep(ctx, "slice subtitles", err)
	}
	if _, err := g.runner.Run(ctx, PaletteArgs(req, srt, palette)...); err != nil {
		return nil, wrapStep(ctx, "generate palette", err)
	}
	gif, err := g.runner.Run(ctx, RenderArgs(req, srt, palette)...)
	if err != nil {
		return nil, wrapStep(ctx, "render gif", err)
	}

	if int64(len(gif)) > req.Options.MaxBytes {
		g.logger.Debug("trimming oversize render",
			logging.Int("bytes", len(gif)),
			logging.Int64("max_bytes", req.Options.MaxBytes),
		)
		gif = Truncate(gif, req.Options.MaxBytes)
	}
	return gif, nil
}

// SliceArgs cuts the subtitle track down to the request window.
func SliceArgs(req Request, srt string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", req.Start, "-to", req.End,
		"-i", req.Subtitles,
		"-y", srt,
	}
}

// PaletteArgs builds a palette for the window with subtitles burned in.
func PaletteArgs(req Request, srt, palette string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", req.Start, "-to", req.End,
		"-i", req.Video,
		"-vf", "subtitles=" + EscapeFilterPath(srt) + "," + req.Options.filters() + ",palettegen",
		"-y", palette,
	}
}

// RenderArgs renders the GIF to stdout, capped by -fs.
func RenderArgs(req Request, srt, palette string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", req.Start, "-to", req.End,
		"-i", req.Video,
		"-i", palette,
		"-lavfi", "subtitles=" + EscapeFilterPath(srt) + "," + req.Options.filters() + " [x]; [x][1:v] paletteuse",
		"-f", "gif",
		"-fs", strconv.FormatInt(req.Options.MaxBytes, 10),
		"-",
	}
}

// EscapeFilterPath escapes a path for use inside an ffmpeg filtergraph so
// Windows drive letters and backslashes survive both escaping levels
// (trac.ffmpeg.org ticket 2166). Plain arguments must not be escaped.
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\\\`)
	return strings.ReplaceAll(path, `:\`, `\\:\`)
}

// Truncate cuts gif to at most limit bytes, keeping a trailer byte so decoders
// stop cleanly on the frames that remain.
func Truncate(gif []byte, limit int64) []byte {
	if limit <= 0 {
		return nil
	}
	if int64(len(gif)) <= limit {
		return gif
	}
	out := append([]byte(nil), gif[:limit]...)
	out[len(out)-1] = gifTrailer
	return out
}

func (g *Generator) tempFile(pattern string) (string, error) {
	f, err := os.CreateTemp(g.tempDir, "substweet-"+pattern)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "clip", "temp file", "create scratch file", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", services.Wrap(services.ErrExternalTool, "clip", "temp file", "close scratch file", err)
	}
	return name, nil
}

func (g *Generator) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(g.logger, "scratch file not removed", "clip_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
			logging.String(logging.FieldImpact, "leftover file in the temp directory"),
		)
	}
}

func wrapStep(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return services.Wrap(services.ErrExternalTool, "clip", step, "ffmpeg failed", err)
}
