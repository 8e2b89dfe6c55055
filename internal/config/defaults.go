package config

const (
	defaultConfigPath            = "~/.config/substweet/config.toml"
	defaultHistoryDB             = "~/.local/share/substweet/history.db"
	defaultLogDir                = "~/.local/share/substweet/logs"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultClipFPS               = 10
	defaultClipWidth             = 506
	defaultClipHeight            = -1
	defaultClipMaxBytes          = 4_700_000
	defaultPostingLimit          = -1
	defaultTwitterAPIBaseURL     = "https://api.twitter.com/1.1"
	defaultTwitterUploadBaseURL  = "https://upload.twitter.com/1.1"
	defaultTwitterWebBaseURL     = "https://twitter.com"
	defaultTwitterRequestTimeout = 60
	defaultTwitterPostsPerWindow = 300
	defaultTwitterWindowMinutes  = 180
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			HistoryDB: defaultHistoryDB,
			LogDir:    defaultLogDir,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Clip: Clip{
			FPS:      defaultClipFPS,
			Width:    defaultClipWidth,
			Height:   defaultClipHeight,
			MaxBytes: defaultClipMaxBytes,
		},
		Posting: Posting{
			Limit: defaultPostingLimit,
		},
		Twitter: Twitter{
			APIBaseURL:     defaultTwitterAPIBaseURL,
			UploadBaseURL:  defaultTwitterUploadBaseURL,
			WebBaseURL:     defaultTwitterWebBaseURL,
			RequestTimeout: defaultTwitterRequestTimeout,
			PostsPerWindow: defaultTwitterPostsPerWindow,
			WindowMinutes:  defaultTwitterWindowMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
