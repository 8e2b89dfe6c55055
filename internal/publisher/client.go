package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"substweet/internal/logging"
	"substweet/internal/services"
)

const (
	userAgent = "substweet/0.1.0"

	mediaFilename    = "image.gif"
	mediaContentType = "image/gif"

	// maxRateLimitWait bounds a single sleep when the reset header is missing
	// or implausible.
	maxRateLimitWait = 15 * time.Minute
	// minRateLimitWait applies when a 429 carries a reset that has already
	// passed, which happens with clock skew or a stale header.
	minRateLimitWait = time.Minute
	// maxRateLimitRetries bounds consecutive 429 responses on one request
	// before the rate-limit error is returned.
	maxRateLimitRetries = 5
)

// Post is one status to publish.
type Post struct {
	Text      string
	Media     []byte
	InReplyTo string
}

// Result identifies a published status.
type Result struct {
	ID         string
	ScreenName string
	URL        string
}

// Account is the authenticated user.
type Account struct {
	ID         string
	ScreenName string
}

// Publisher is the capability the scheduler posts through.
type Publisher interface {
	Publish(ctx context.Context, post Post) (Result, error)
}

// Config holds endpoint and pacing settings.
type Config struct {
	APIBaseURL    string
	UploadBaseURL string
	WebBaseURL    string
	Timeout       time.Duration
	// WaitOnRateLimit makes the client pace itself: status updates go through
	// the limiter and exhausted windows are slept through. When false a rate
	// limit response is returned as an error.
	WaitOnRateLimit bool
	PostsPerWindow  int
	Window          time.Duration
}

// Client talks to the REST API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	sleep func(context.Context, time.Duration) error
	now   func() time.Time

	mu           sync.Mutex
	blockedUntil map[string]time.Time
	account      Account
}

// NewClient builds a signed client. Credentials must be complete.
func NewClient(creds Credentials, cfg Config, logger *slog.Logger) (*Client, error) {
	if !creds.Complete() {
		return nil, services.Wrap(services.ErrConfiguration, "publisher", "credentials", "all four secrets are required", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.UploadBaseURL = strings.TrimRight(cfg.UploadBaseURL, "/")
	cfg.WebBaseURL = strings.TrimRight(cfg.WebBaseURL, "/")
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = cfg.APIBaseURL
	}

	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	oauthCfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	signed := oauthCfg.Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessSecret))
	signed.Timeout = cfg.Timeout

	c := &Client{
		cfg:          cfg,
		http:         signed,
		logger:       logging.NewComponentLogger(logger, "publisher"),
		sleep:        sleepContext,
		now:          time.Now,
		blockedUntil: make(map[string]time.Time),
	}
	if cfg.WaitOnRateLimit && cfg.PostsPerWindow > 0 && cfg.Window > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.PostsPerWindow)), 1)
	}
	return c, nil
}

// VerifyCredentials checks the secrets and caches the account handle used for
// post URLs. Rejected credentials are a configuration error.
func (c *Client) VerifyCredentials(ctx context.Context) (Account, error) {
	var body struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	}
	endpoint := c.cfg.APIBaseURL + "/account/verify_credentials.json"
	err := c.doJSON(ctx, "verify_credentials", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return Account{}, services.Wrap(services.ErrConfiguration, "publisher", "verify credentials", "credentials rejected", err)
		}
		return Account{}, services.Wrap(services.ErrConfiguration, "publisher", "verify credentials", "could not reach the API", err)
	}
	account := Account{ID: body.IDStr, ScreenName: body.ScreenName}
	c.mu.Lock()
	c.account = account
	c.mu.Unlock()
	c.logger.Info("credentials verified", logging.String("screen_name", account.ScreenName))
	return account, nil
}

// Publish uploads the GIF and posts it with the text body.
func (c *Client) Publish(ctx context.Context, post Post) (Result, error) {
	if len(post.Media) == 0 {
		return Result{}, services.Wrap(services.ErrPublish, "publisher", "publish", "empty media payload", nil)
	}
	mediaID, err := c.uploadMedia(ctx, post.Media)
	if err != nil {
		return Result{}, services.Wrap(services.ErrPublish, "publisher", "upload media", "", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	form := url.Values{}
	form.Set("status", post.Text)
	form.Set("media_ids", mediaID)
	if reply := strings.TrimSpace(post.InReplyTo); reply != "" {
		form.Set("in_reply_to_status_id", reply)
	}
	encoded := form.Encode()
	endpoint := c.cfg.APIBaseURL + "/statuses/update.json"

	var status struct {
		IDStr string `json:"id_str"`
		User  struct {
			ScreenName string `json:"screen_name"`
		} `json:"user"`
	}
	err = c.doJSON(ctx, "statuses_update", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &status)
	if err != nil {
		return Result{}, services.Wrap(services.ErrPublish, "publisher", "update status", "", err)
	}

	screenName := status.User.ScreenName
	if screenName == "" {
		c.mu.Lock()
		screenName = c.account.ScreenName
		c.mu.Unlock()
	}
	return Result{ID: status.IDStr, ScreenName: screenName, URL: c.PostURL(screenName, status.IDStr)}, nil
}

// PostURL formats the public address of a status.
func (c *Client) PostURL(screenName, id string) string {
	return fmt.Sprintf("%s/%s/status/%s", c.cfg.WebBaseURL, screenName, id)
}

func (c *Client) uploadMedia(ctx context.Context, media []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, mediaFilename))
	header.Set("Content-Type", mediaContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	payload := buf.Bytes()
	contentType := writer.FormDataContentType()
	endpoint := c.cfg.UploadBaseURL + "/media/upload.json"

	var body struct {
		MediaIDString string `json:"media_id_string"`
	}
	err = c.doJSON(ctx, "media_upload", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &body)
	if err != nil {
		return "", err
	}
	if body.MediaIDString == "" {
		return "", &APIError{Message: "upload response missing media id"}
	}
	return body.MediaIDString, nil
}

// doJSON sends the request built by newReq, retrying only after sleeping
// through a rate-limit window when the client paces itself.
func (c *Client) doJSON(ctx context.Context, bucket string, newReq func() (*http.Request, error), out any) error {
	limited := 0
	for {
		if err := c.waitForWindow(ctx, bucket); err != nil {
			return err
		}
		req, err := newReq()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return services.Wrap(services.ErrTimeout, "publisher", bucket, "request timed out", err)
			}
			return services.Wrap(services.ErrTransient, "publisher", bucket, "request failed", err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			return services.Wrap(services.ErrTransient, "publisher", bucket, "read response", readErr)
		}

		reset := c.parseReset(resp.Header)
		if resp.Header.Get("x-rate-limit-remaining") == "0" && !reset.IsZero() {
			c.block(bucket, reset)
		}

		if resp.StatusCode == http.StatusTooManyRequests && c.cfg.WaitOnRateLimit && limited < maxRateLimitRetries {
			limited++
			now := c.now()
			switch {
			case reset.IsZero():
				reset = now.Add(maxRateLimitWait)
			case reset.Sub(now) < minRateLimitWait:
				reset = now.Add(minRateLimitWait)
			}
			c.block(bucket, reset)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return decodeAPIError(resp.StatusCode, body)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", bucket, err)
		}
		return nil
	}
}

func (c *Client) waitForWindow(ctx context.Context, bucket string) error {
	if !c.cfg.WaitOnRateLimit {
		return nil
	}
	c.mu.Lock()
	until := c.blockedUntil[bucket]
	delete(c.blockedUntil, bucket)
	c.mu.Unlock()

	wait := until.Sub(c.now())
	if wait <= 0 {
		return nil
	}
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	logging.WithContext(ctx, c.logger).Info("rate limit window exhausted, waiting",
		logging.String("endpoint", bucket),
		logging.Duration("wait", wait.Round(time.Second)),
	)
	return c.sleep(ctx, wait)
}

func (c *Client) block(bucket string, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if until.After(c.blockedUntil[bucket]) {
		c.blockedUntil[bucket] = until
	}
}

func (c *Client) parseReset(header http.Header) time.Time {
	raw := strings.TrimSpace(header.Get("x-rate-limit-reset"))
	if raw == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	// One second of slack so the window has actually rolled over.
	return time.Unix(secs, 0).Add(time.Second)
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
