package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/pkg/redis"
)

var (
	ErrMissingClientID     = errors.New("config: GOOGLE_OAUTH_CLIENT_ID is required")
	ErrMissingClientSecret = errors.New("config: GOOGLE_OAUTH_CLIENT_SECRET is required")
	ErrInvalidValue        = errors.New("config: invalid value")
)

// Config is the runtime configuration of the server.
type Config struct {
	Google oauth.GoogleConfig `mapstructure:",squash"`

	Address           string        `mapstructure:"address"`
	Secret            string        `mapstructure:"secret"`
	RedisURL          string        `mapstructure:"redis_url"`
	RedisHost         string        `mapstructure:"redis_host"`
	RedisPort         int           `mapstructure:"redis_port"`
	SessionCookieName string        `mapstructure:"session_cookie_name"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	SentryDSN         string        `mapstructure:"sentry_dsn"`
	Environment       string        `mapstructure:"environment"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadSize     int64         `mapstructure:"-"`
}

var defaults = map[string]any{
	"address":                    ":8000",
	"secret":                     "secret",
	"google_oauth_client_id":     "",
	"google_oauth_client_secret": "",
	"redirect_url":               "http://localhost:8000/auth/callback",
	"google_oauth_scopes":        "",
	"redis_url":                  "",
	"redis_host":                 "",
	"redis_port":                 6379,
	"session_cookie_name":        "session_id",
	"session_ttl":                "24h",
	"cookie_secure":              false,
	"cors_origins":               "http://localhost:8000,http://127.0.0.1:8000",
	"log_level":                  "info",
	"log_format":                 "json",
	"sentry_dsn":                 "",
	"environment":                "development",
	"shutdown_timeout":           "30s",
	"max_upload_size":            "32MB",
}

// Load resolves the configuration from flags, the environment, an optional
// config file and defaults, in that order of precedence.
//
// args are the command line arguments without the program name.
// Without --config, a .env file in the working directory is read if present.
func Load(args []string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	fs := pflag.NewFlagSet("drivedesk", pflag.ContinueOnError)
	configFile := fs.String("config", "", "Path to a YAML or .env config file")
	fs.String("address", ":8000", "HTTP listen address")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "json", "Log format: json or text")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		"address":    "address",
		"log_level":  "log-level",
		"log_format": "log-format",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("config: bind flag %s: %w", flag, err)
		}
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat(".env"); err == nil {
			path = ".env"
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if strings.HasSuffix(path, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Join(ErrInvalidValue, err)
	}
	cfg.MaxUploadSize = int64(v.GetSizeInBytes("max_upload_size"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Google.ClientID == "":
		return ErrMissingClientID
	case c.Google.ClientSecret == "":
		return ErrMissingClientSecret
	case c.Secret == "":
		return fmt.Errorf("%w: SECRET must not be empty", ErrInvalidValue)
	case c.SessionTTL <= 0:
		return fmt.Errorf("%w: SESSION_TTL must be positive", ErrInvalidValue)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive", ErrInvalidValue)
	case c.MaxUploadSize <= 0:
		return fmt.Errorf("%w: MAX_UPLOAD_SIZE must be a size like 32MB", ErrInvalidValue)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("%w: LOG_FORMAT must be json or text", ErrInvalidValue)
	case c.RedisPort < 0 || c.RedisPort > 65535:
		return fmt.Errorf("%w: REDIS_PORT out of range", ErrInvalidValue)
	}
	return nil
}

// RedisAddr returns the Redis connection URL, or an empty string when the
// session table should stay in memory. REDIS_URL wins over REDIS_HOST.
func (c *Config) RedisAddr() string {
	if c.RedisURL != "" {
		return c.RedisURL
	}
	if c.RedisHost != "" {
		return redis.URL(c.RedisHost, c.RedisPort)
	}
	return ""
}
