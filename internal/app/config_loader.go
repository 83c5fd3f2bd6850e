package app

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "DWHELPER"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.dwhelper")
		v.AddConfigPath("/etc/dwhelper")
	}

	// DWHELPER_TIKTOK_ATTEMPTS overrides tiktok.attempts
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(*config))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Decoding into a non-empty slice overwrites element-wise and keeps the tail
	if v.IsSet("transport.retry_statuses") {
		config.Transport.RetryStatuses = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvs registers every mapstructure key so AutomaticEnv also applies to keys
// that appear in neither the config file nor viper defaults
func bindEnvs(v *viper.Viper, t reflect.Type, parts ...string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		path := append(append([]string{}, parts...), tag)
		if field.Type.Kind() == reflect.Struct {
			bindEnvs(v, field.Type, path...)
			continue
		}
		v.BindEnv(strings.Join(path, "."))
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.DestinationDir = expandPath(config.Download.DestinationDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.YTDLP.Binary = expandPath(config.YTDLP.Binary)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it resolves even where the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig reports every problem at once
func validateConfig(config *domain.Config) error {
	var result *multierror.Error

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid server port: %d", config.Server.Port))
	}

	if config.Download.DestinationDir == "" {
		result = multierror.Append(result, fmt.Errorf("download destination directory not configured"))
	}
	if config.Download.LogsDir == "" {
		result = multierror.Append(result, fmt.Errorf("logs directory not configured"))
	}
	if config.Download.DirectMinBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("direct min bytes cannot be negative"))
	}
	if config.Download.ChunkSize < 1 {
		result = multierror.Append(result, fmt.Errorf("chunk size must be positive"))
	}

	if config.Transport.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("max retries cannot be negative"))
	}

	if config.TikTok.Attempts < 1 {
		result = multierror.Append(result, fmt.Errorf("tiktok attempts must be at least 1"))
	}
	if config.TikTok.BackoffMax < config.TikTok.BackoffMin {
		result = multierror.Append(result, fmt.Errorf("tiktok backoff max %s is below backoff min %s",
			config.TikTok.BackoffMax, config.TikTok.BackoffMin))
	}
	if config.TikTok.MinLinkLength < 0 {
		result = multierror.Append(result, fmt.Errorf("tiktok min link length cannot be negative"))
	}

	if config.YTDLP.Enabled && config.YTDLP.Binary == "" {
		result = multierror.Append(result, fmt.Errorf("ytdlp binary not configured"))
	}
	if config.YTDLP.MinBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("ytdlp min bytes cannot be negative"))
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		result = multierror.Append(result, fmt.Errorf("history database path not configured"))
	}

	if config.Notification.Enabled {
		switch config.Notification.Method {
		case "osascript", "notify-send":
		default:
			result = multierror.Append(result, fmt.Errorf("unknown notification method: %s", config.Notification.Method))
		}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if _, err := zapcore.ParseLevel(config.Logging.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid log level: %s", config.Logging.Level))
	}

	return result.ErrorOrNil()
}

// SaveConfig saves configuration to file using the same keys LoadConfig reads
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range toSettings(reflect.ValueOf(*config)) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// toSettings converts a config struct into nested maps keyed by mapstructure tags
func toSettings(value reflect.Value) map[string]interface{} {
	settings := make(map[string]interface{})
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		field := value.Field(i)
		switch {
		case field.Type() == reflect.TypeOf(time.Duration(0)):
			settings[tag] = time.Duration(field.Int()).String()
		case field.Kind() == reflect.Struct:
			settings[tag] = toSettings(field)
		default:
			settings[tag] = field.Interface()
		}
	}
	return settings
}
