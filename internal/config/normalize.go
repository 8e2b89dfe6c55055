package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Credential keys accepted from the environment and from the credentials file.
const (
	EnvConsumerKey    = "SUBSTWEET_CONSUMER_KEY"
	EnvConsumerSecret = "SUBSTWEET_CONSUMER_SECRET"
	EnvAccessToken    = "SUBSTWEET_ACCESS_TOKEN"
	EnvAccessSecret   = "SUBSTWEET_ACCESS_SECRET"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	if err := c.normalizeTwitter(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateFile, err = expandPath(strings.TrimSpace(c.Paths.StateFile)); err != nil {
		return fmt.Errorf("paths.state_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = os.TempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTwitter() error {
	c.Twitter.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Twitter.APIBaseURL), "/")
	if c.Twitter.APIBaseURL == "" {
		c.Twitter.APIBaseURL = defaultTwitterAPIBaseURL
	}
	c.Twitter.UploadBaseURL = strings.TrimRight(strings.TrimSpace(c.Twitter.UploadBaseURL), "/")
	if c.Twitter.UploadBaseURL == "" {
		c.Twitter.UploadBaseURL = defaultTwitterUploadBaseURL
	}
	c.Twitter.WebBaseURL = strings.TrimRight(strings.TrimSpace(c.Twitter.WebBaseURL), "/")
	if c.Twitter.WebBaseURL == "" {
		c.Twitter.WebBaseURL = defaultTwitterWebBaseURL
	}

	if path := strings.TrimSpace(c.Twitter.CredentialsFile); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("twitter.credentials_file: %w", err)
		}
		c.Twitter.CredentialsFile = expanded
		values, err := godotenv.Read(expanded)
		if err != nil {
			return fmt.Errorf("twitter.credentials_file: read %s: %w", expanded, err)
		}
		c.applyCredentials(func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		})
	}
	c.applyCredentials(os.LookupEnv)
	return nil
}

// applyCredentials fills any credential that is still empty from lookup.
func (c *Config) applyCredentials(lookup func(string) (string, bool)) {
	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if value, ok := lookup(key); ok {
			*dst = strings.TrimSpace(value)
		}
	}
	fill(&c.Twitter.ConsumerKey, EnvConsumerKey)
	fill(&c.Twitter.ConsumerSecret, EnvConsumerSecret)
	fill(&c.Twitter.AccessToken, EnvAccessToken)
	fill(&c.Twitter.AccessSecret, EnvAccessSecret)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
