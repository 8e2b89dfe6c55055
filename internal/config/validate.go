package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClip(); err != nil {
		return err
	}
	if err := c.validatePosting(); err != nil {
		return err
	}
	if err := c.validateTwitter(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClip() error {
	if c.Clip.FPS <= 0 {
		return errors.New("clip.fps must be positive")
	}
	if err := validateDimension("clip.width", c.Clip.Width); err != nil {
		return err
	}
	if err := validateDimension("clip.height", c.Clip.Height); err != nil {
		return err
	}
	if c.Clip.MaxBytes <= 0 {
		return errors.New("clip.max_bytes must be positive")
	}
	return nil
}

func validateDimension(key string, value int) error {
	if value == -1 || value > 0 {
		return nil
	}
	return fmt.Errorf("%s must be positive or -1 to autoscale", key)
}

func (c *Config) validatePosting() error {
	raw := strings.TrimSpace(c.Posting.Delay)
	if raw == "" {
		return nil
	}
	d, err := parseDelay(raw)
	if err != nil {
		return fmt.Errorf("posting.delay: %w", err)
	}
	if d < 0 {
		return errors.New("posting.delay must not be negative")
	}
	return nil
}

func (c *Config) validateTwitter() error {
	if err := ensurePositiveMap(map[string]int{
		"twitter.request_timeout":       c.Twitter.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Twitter.PostsPerWindow < 0 {
		return errors.New("twitter.posts_per_window must be >= 0 (0 disables client-side pacing)")
	}
	if c.Twitter.PostsPerWindow > 0 && c.Twitter.WindowMinutes <= 0 {
		return errors.New("twitter.window_minutes must be positive when twitter.posts_per_window is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
