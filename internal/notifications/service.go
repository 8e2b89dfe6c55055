package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"substweet/internal/config"
)

const userAgent = "substweet/0.1.0"

// Event names a notification type.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventError        Event = "error"
	EventTest         Event = "test"
)

// Payload carries event fields. Values are formatted with fmt.Sprint.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventRunCompleted: cfg.Notifications.RunCompleted,
			EventError:        cfg.Notifications.Errors,
			EventTest:         true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		posted := payload.number("posted")
		failed := payload.number("failed")
		video := payload.text("video")
		duration := time.Duration(payload.number("durationSeconds")) * time.Second
		title := "substweet - Run Complete"
		body := fmt.Sprintf("Posted %d captions from %s in %s", posted, video, duration)
		if failed > 0 {
			title = "substweet - Run Complete (with errors)"
			body = fmt.Sprintf("Posted %d, failed %d captions from %s in %s", posted, failed, video, duration)
		}
		if next := payload.text("resumeAt"); next != "" {
			body += "\nResume point: caption " + next
		}
		return message{title: title, body: body, tags: []string{"substweet", "run", "completed"}}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payload.text("context"); label != "" {
			builder.WriteString(" during ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{title: "substweet - Error", body: builder.String(), tags: []string{"substweet", "error", "alert"}, priority: "high"}, true
	case EventTest:
		return message{title: "substweet - Test", body: "Notification system test", tags: []string{"substweet", "test"}, priority: "low"}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if err, ok := v.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (p Payload) number(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
