// Package config loads the Timeline service configuration from an optional
// YAML file plus environment variables.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPort is the listening port used when PORT is unset. The container
// image declares the same value via EXPOSE.
const DefaultPort = 8000

// DefaultLocator is the application entry point started by the bootstrap when
// none is configured.
const DefaultLocator = "app.main:app"

// Config holds all configuration for the Timeline service.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		// Port is resolved from the PORT environment variable (or the
		// default) by LoadConfig, not unmarshalled; see resolvePort.
		Port int `mapstructure:"-"`
		// App names the handler the server hands requests to, in
		// module:symbol form.
		App             string        `mapstructure:"app"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		TLS             bool          `mapstructure:"tls"`
		CertFile        string        `mapstructure:"cert_file"`
		KeyFile         string        `mapstructure:"key_file"`
	} `mapstructure:"server"`

	API struct {
		Version        string   `mapstructure:"version"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		MaxAudioBytes  int64    `mapstructure:"max_audio_bytes"`
		RateLimit      struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			Burst             int `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`

	Upstream struct {
		// BaseURL is the AI Builder Space API root.
		BaseURL string `mapstructure:"base_url"`
		// Token authenticates upstream calls. Its absence is not a load
		// error: the server can start and serve health checks without
		// it, and the service clients fail descriptively at call time.
		Token             string        `mapstructure:"token"`
		Model             string        `mapstructure:"model"`
		TranscribeTimeout time.Duration `mapstructure:"transcribe_timeout"`
		ExtractTimeout    time.Duration `mapstructure:"extract_timeout"`
	} `mapstructure:"upstream"`

	Prompts struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"prompts"`

	Tags struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"tags"`

	Cache struct {
		Enabled bool `mapstructure:"enabled"`
		Size    int  `mapstructure:"size"`
	} `mapstructure:"cache"`

	Static struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"static"`
}

// LoadConfig reads configuration from config.yaml (searched in . and
// ./config) merged with environment variables, then validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	loadFromEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	port, err := resolvePort(v)
	if err != nil {
		return nil, err
	}
	config.Server.Port = port

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.app", DefaultLocator)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_file", "server.crt")
	v.SetDefault("server.key_file", "server.key")

	v.SetDefault("api.version", "1.0.0")
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.max_audio_bytes", int64(25*1024*1024))
	v.SetDefault("api.rate_limit.requests_per_second", 10)
	v.SetDefault("api.rate_limit.burst", 20)

	v.SetDefault("upstream.base_url", "https://space.ai-builders.com")
	v.SetDefault("upstream.token", "")
	v.SetDefault("upstream.model", "gemini-3-flash-preview")
	v.SetDefault("upstream.transcribe_timeout", 60*time.Second)
	v.SetDefault("upstream.extract_timeout", 30*time.Second)

	v.SetDefault("prompts.path", "prompts/prompts.md")
	v.SetDefault("tags.path", "config/tags.yaml")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 256)

	v.SetDefault("static.dir", "static")
}

func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix("TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment-facing variables keep their short, conventional names.
	// PORT is the container runtime contract; the AI_BUILDER_* and
	// LLM_MODEL names match the upstream platform's documentation.
	_ = v.BindEnv("server.port", "TIMELINE_SERVER_PORT", "PORT")
	_ = v.BindEnv("upstream.base_url", "TIMELINE_UPSTREAM_BASE_URL", "AI_BUILDER_API_BASE")
	_ = v.BindEnv("upstream.token", "TIMELINE_UPSTREAM_TOKEN", "AI_BUILDER_TOKEN")
	_ = v.BindEnv("upstream.model", "TIMELINE_UPSTREAM_MODEL", "LLM_MODEL")
}

// resolvePort turns the configured port value into a validated TCP port.
// The value arrives as a string when sourced from the environment, so the
// conversion is explicit: a set-but-malformed PORT must abort startup rather
// than silently fall back to the default.
func resolvePort(v *viper.Viper) (int, error) {
	raw := strings.TrimSpace(v.GetString("server.port"))
	if raw == "" {
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid PORT value %q: not a number", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT value %d: must be between 1 and 65535", port)
	}
	return port, nil
}

func validateConfig(config *Config) error {
	if config.Server.App == "" {
		return fmt.Errorf("server.app must not be empty")
	}
	if config.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if config.API.MaxAudioBytes <= 0 {
		return fmt.Errorf("api.max_audio_bytes must be positive")
	}
	if config.API.RateLimit.RequestsPerSecond <= 0 || config.API.RateLimit.Burst <= 0 {
		return fmt.Errorf("api.rate_limit values must be positive")
	}

	u, err := url.Parse(config.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not a valid URL", config.Upstream.BaseURL)
	}
	if config.Upstream.TranscribeTimeout <= 0 || config.Upstream.ExtractTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}

	if config.Cache.Enabled && config.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive when cache is enabled")
	}

	return nil
}

// ListenAddr returns the host:port the server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
