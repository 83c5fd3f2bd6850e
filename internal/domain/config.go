package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Transport    TransportConfig    `mapstructure:"transport"`
	TikTok       TikTokConfig       `mapstructure:"tiktok"`
	Instagram    InstagramConfig    `mapstructure:"instagram"`
	YTDLP        YTDLPConfig        `mapstructure:"ytdlp"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains API server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains direct download configuration
type DownloadConfig struct {
	DestinationDir string        `mapstructure:"destination_dir"`
	LogsDir        string        `mapstructure:"logs_dir"`
	DirectTimeout  time.Duration `mapstructure:"direct_timeout"`
	DirectMinBytes int64         `mapstructure:"direct_min_bytes"`
	ChunkSize      int           `mapstructure:"chunk_size"`
}

// TransportConfig contains the shared HTTP client configuration
type TransportConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffFactor  time.Duration `mapstructure:"backoff_factor"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	RetryStatuses  []int         `mapstructure:"retry_statuses"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
}

// TikTokConfig contains short-form video handler configuration
type TikTokConfig struct {
	Attempts       int           `mapstructure:"attempts"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BackoffMin     time.Duration `mapstructure:"backoff_min"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	MinLinkLength  int           `mapstructure:"min_link_length"`
	SsstikEndpoint string        `mapstructure:"ssstik_endpoint"`
	TikwmEndpoint  string        `mapstructure:"tikwm_endpoint"`
	Format         string        `mapstructure:"format"`
}

// InstagramConfig contains photo/video sharing handler configuration
type InstagramConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	VariantDelay   time.Duration `mapstructure:"variant_delay"`
	BaseURL        string        `mapstructure:"base_url"` // overrides scheme+host of post URLs when set
	Format         string        `mapstructure:"format"`
}

// YTDLPConfig contains general-purpose extractor configuration
type YTDLPConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Binary          string `mapstructure:"binary"`
	Format          string `mapstructure:"format"`
	Retries         int    `mapstructure:"retries"`
	FragmentRetries int    `mapstructure:"fragment_retries"`
	MinBytes        int64  `mapstructure:"min_bytes"`
}

// HistoryConfig contains resolution history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			DestinationDir: "downloaded_videos",
			LogsDir:        "$HOME/.dwhelper/logs",
			DirectTimeout:  90 * time.Second,
			DirectMinBytes: 314572, // 0.3 MiB
			ChunkSize:      512 * 1024,
		},
		Transport: TransportConfig{
			MaxRetries:    6,
			BackoffFactor: 1300 * time.Millisecond,
			MaxBackoff:    30 * time.Second,
			RetryStatuses: []int{429, 500, 502, 503, 504, 520, 522},
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
			AcceptLanguage: "ru-RU,ru;q=0.9,en;q=0.8",
		},
		TikTok: TikTokConfig{
			Attempts:       3,
			RequestTimeout: 18 * time.Second,
			BackoffMin:     1400 * time.Millisecond,
			BackoffMax:     3100 * time.Millisecond,
			MinLinkLength:  50,
			SsstikEndpoint: "https://ssstik.io/abc?url=dl",
			TikwmEndpoint:  "https://tikwm.com/api/",
			Format:         "best[ext=mp4]/best",
		},
		Instagram: InstagramConfig{
			RequestTimeout: 14 * time.Second,
			VariantDelay:   800 * time.Millisecond,
			Format:         "best[ext=mp4]/best",
		},
		YTDLP: YTDLPConfig{
			Enabled:         true,
			Binary:          "yt-dlp",
			Format:          "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			Retries:         12,
			FragmentRetries: 12,
			MinBytes:        300000,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.dwhelper/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
