package scheduler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"substweet/internal/captions"
	"substweet/internal/clip"
	"substweet/internal/history"
	"substweet/internal/logging"
	"substweet/internal/poststate"
	"substweet/internal/publisher"
	"substweet/internal/services"
)

// Phase is the scheduler's position in a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResuming
	PhasePosting
	PhaseDelaying
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResuming:
		return "resuming"
	case PhasePosting:
		return "posting"
	case PhaseDelaying:
		return "delaying"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ClipGenerator renders one caption window.
type ClipGenerator interface {
	Generate(ctx context.Context, req clip.Request) ([]byte, error)
}

// StateStore loads and persists the resume record.
type StateStore interface {
	Load() poststate.State
	Save(poststate.State) error
}

// Recorder appends publish attempts to a ledger.
type Recorder interface {
	Record(ctx context.Context, attempt history.Attempt) (int64, error)
}

// Reporter receives user-facing progress. CaptionStarted is called before the
// clip is rendered; exactly one of CaptionPosted or CaptionFailed follows a
// publish attempt.
type Reporter interface {
	CaptionStarted(rec captions.Record)
	CaptionPosted(rec captions.Record, result publisher.Result)
	CaptionFailed(rec captions.Record, err error)
}

// Options is the posting policy for one run.
type Options struct {
	RunID     string
	Video     string
	Subtitles string
	Thread    bool
	// Delay spaces consecutive posts. Zero leaves pacing to the publisher.
	Delay time.Duration
	// Limit caps publish attempts; negative means unlimited.
	Limit int
	Clip  clip.Options
}

// Deps are the scheduler's collaborators. State, Recorder, Reporter and
// Logger are optional.
type Deps struct {
	Clips     ClipGenerator
	Publisher publisher.Publisher
	State     StateStore
	Recorder  Recorder
	Reporter  Reporter
	Logger    *slog.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Attempted int
	Posted    int
	Failed    int
	Skipped   int
	// LastID is the caption the loop stopped at; zero when none was reached.
	LastID int
	Parent string
	// Saved reports whether the state file was written.
	Saved bool
}

// Scheduler posts captions in order.
type Scheduler struct {
	opts     Options
	clips    ClipGenerator
	pub      publisher.Publisher
	state    StateStore
	recorder Recorder
	reporter Reporter
	logger   *slog.Logger

	sleep func(context.Context, time.Duration) error
	phase Phase
}

// New validates the collaborators and returns a Scheduler.
func New(opts Options, deps Deps) (*Scheduler, error) {
	if deps.Clips == nil {
		return nil, errors.New("scheduler: clip generator is required")
	}
	if deps.Publisher == nil {
		return nil, errors.New("scheduler: publisher is required")
	}
	if opts.Delay < 0 {
		return nil, services.Wrap(services.ErrValidation, "scheduler", "options", "delay must not be negative", nil)
	}
	if opts.RunID == "" {
		opts.RunID = history.NewRunID()
	}
	return &Scheduler{
		opts:     opts,
		clips:    deps.Clips,
		pub:      deps.Publisher,
		state:    deps.State,
		recorder: deps.Recorder,
		reporter: deps.Reporter,
		logger:   logging.NewComponentLogger(deps.Logger, "scheduler"),
		sleep:    sleepContext,
	}, nil
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase { return s.phase }

// Run posts the captions yielded by records. A parse or render error aborts
// the run and is returned without touching the state file, as does
// cancellation.
func (s *Scheduler) Run(ctx context.Context, records iter.Seq2[captions.Record, error]) (Summary, error) {
	ctx = services.WithRunID(ctx, s.opts.RunID)
	logger := logging.WithContext(ctx, s.logger)
	summary := Summary{RunID: s.opts.RunID}

	s.phase = PhaseIdle
	var prior poststate.State
	if s.state != nil {
		prior = s.state.Load()
	}

	var parent *string
	if s.opts.Thread && prior.Parent != nil {
		p := *prior.Parent
		parent = &p
	}
	if prior.Skip != nil {
		s.phase = PhaseResuming
		logger.Info("resuming from saved state", logging.Int("skip", *prior.Skip))
	}

	budget := s.opts.Limit
	var reached *int
	posted := false

	for rec, err := range records {
		if err != nil {
			return summary, services.Wrap(services.ErrValidation, "scheduler", "parse captions", "", err)
		}
		if s.phase == PhaseResuming && rec.ID < *prior.Skip {
			summary.Skipped++
			continue
		}
		s.phase = PhasePosting

		id := rec.ID
		reached = &id
		if budget == 0 {
			logger.Info("post budget exhausted", logging.Int("next_caption", rec.ID))
			break
		}

		if posted && s.opts.Delay > 0 {
			s.phase = PhaseDelaying
			if err := s.sleep(ctx, s.opts.Delay); err != nil {
				return summary, err
			}
			s.phase = PhasePosting
		}

		if err := s.post(ctx, rec, &parent, &summary); err != nil {
			return summary, err
		}
		posted = true
		if budget > 0 {
			budget--
		}
	}

	s.phase = PhaseCompleted
	if reached != nil {
		summary.LastID = *reached
	}
	if parent != nil {
		summary.Parent = *parent
	}

	if s.state != nil {
		next := poststate.State{Skip: prior.Skip, Parent: parent}
		if reached != nil {
			next.Skip = reached
		}
		if err := s.state.Save(next); err != nil {
			return summary, fmt.Errorf("save posting state: %w", err)
		}
		summary.Saved = true
	}

	logger.Info("posting run completed",
		logging.Int("attempted", summary.Attempted),
		logging.Int("posted", summary.Posted),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("last_caption", summary.LastID),
	)
	return summary, nil
}

// post renders and publishes one caption. Only render failures and
// cancellation are returned; publish failures are counted.
func (s *Scheduler) post(ctx context.Context, rec captions.Record, parent **string, summary *Summary) error {
	ctx = services.WithCaptionID(ctx, rec.ID)
	logger := logging.WithContext(ctx, s.logger)

	if s.reporter != nil {
		s.reporter.CaptionStarted(rec)
	}

	gif, err := s.clips.Generate(ctx, clip.Request{
		Video:     s.opts.Video,
		Subtitles: s.opts.Subtitles,
		Start:     rec.Start,
		End:       rec.End,
		Options:   s.opts.Clip,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("caption %d: %w", rec.ID, err)
	}
	rendered := []logging.Attr{logging.Int("bytes", len(gif))}
	if start, end, err := rec.Window(); err == nil {
		rendered = append(rendered, logging.String("window_start", rec.Start), logging.Duration("window", end-start))
	}
	logger.Debug("clip rendered", logging.Args(rendered...)...)

	post := publisher.Post{Text: rec.Body(), Media: gif}
	if s.opts.Thread && *parent != nil {
		post.InReplyTo = **parent
	}

	summary.Attempted++
	result, pubErr := s.pub.Publish(ctx, post)
	if pubErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	attempt := history.Attempt{
		RunID:     s.opts.RunID,
		Video:     s.opts.Video,
		CaptionID: rec.ID,
		Start:     rec.Start,
		End:       rec.End,
		Body:      post.Text,
		ClipBytes: len(gif),
	}
	if pubErr != nil {
		summary.Failed++
		attempt.Status = history.StatusFailed
		attempt.Error = pubErr.Error()
		event, hint := "publish_failed", "check the API response; the run continues with the next caption"
		var apiErr *publisher.APIError
		if errors.As(pubErr, &apiErr) && apiErr.RateLimited() {
			event, hint = "publish_rate_limited", "the API rate limit was hit; leave posting.delay empty so the client waits for the reset"
		}
		logging.WarnWithContext(logger, "publish failed", event,
			logging.Error(pubErr),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "caption not posted"),
		)
		if s.reporter != nil {
			s.reporter.CaptionFailed(rec, pubErr)
		}
	} else {
		summary.Posted++
		attempt.Status = history.StatusPosted
		attempt.PostID = result.ID
		attempt.PostURL = result.URL
		if s.opts.Thread {
			id := result.ID
			*parent = &id
		}
		logger.Info("caption posted", logging.String("post_id", result.ID), logging.String("url", result.URL))
		if s.reporter != nil {
			s.reporter.CaptionPosted(rec, result)
		}
	}

	if s.recorder != nil {
		if _, err := s.recorder.Record(ctx, attempt); err != nil {
			logging.WarnWithContext(logger, "history ledger write failed", "history_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
				logging.String(logging.FieldImpact, "attempt missing from substweet history"),
			)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
