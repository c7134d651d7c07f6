package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file and the
// environment.
const (
	DefaultAPIEndpoint    = "https://api.mackerelio.com"
	DefaultAPIKeyEnv      = "API_KEY"
	DefaultPasswordEnv    = "PASSWORD"
	DefaultPollInterval   = 60 * time.Second
	DefaultRetryInterval  = 1 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Environment variables read on top of the config file.
const (
	EnvAPIEndpoint    = "API_ENDPOINT"
	EnvDebug          = "DEBUG"
	EnvHostID         = "HOST_ID"
	EnvDeviceURL      = "URL"
	EnvPollingTime    = "POLLING_TIME"
	EnvExporterListen = "EXPORTER_LISTEN"
	EnvLogLevel       = "LOG_LEVEL"
)

// Config is the full agent configuration.
type Config struct {
	// APIEndpoint is the base URL of the metrics ingestion API.
	APIEndpoint string `yaml:"api_endpoint"`

	// APIKeyEnv is the name of the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Debug logs every formatted batch before it is submitted.
	Debug bool `yaml:"debug"`

	// HostID is embedded in every metric point.
	HostID string `yaml:"host_id"`

	// Device holds the switch management interface settings.
	Device DeviceConfig `yaml:"device"`

	// PollInterval is the sleep between successful cycles.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RetryInterval is the short sleep used when a cycle produced no rate
	// (first sample, or two samples stamped the same second).
	RetryInterval time.Duration `yaml:"retry_interval"`

	// RequestTimeout bounds every HTTP request to the switch and the API.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Exporter configures the optional local HTTP endpoint.
	Exporter ExporterConfig `yaml:"exporter"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// DeviceConfig identifies the switch and how to log into it.
type DeviceConfig struct {
	// URL is the base URL of the web UI, e.g. http://192.168.0.239.
	URL string `yaml:"url"`

	// PasswordEnv is the name of the environment variable that holds the
	// login password.
	PasswordEnv string `yaml:"password_env"`

	// InsecureSkipVerify disables TLS certificate verification for switches
	// serving a self-signed certificate.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Password returns the login password resolved from the environment.
func (d DeviceConfig) Password() string {
	if d.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(d.PasswordEnv)
}

// ExporterConfig configures the local /metrics, /api/v1/rates and /ws endpoints.
type ExporterConfig struct {
	// ListenAddr is the host:port to listen on. Empty disables the exporter.
	ListenAddr string `yaml:"listen_addr"`
}

// Enabled reports whether the exporter should be started.
func (e ExporterConfig) Enabled() bool { return e.ListenAddr != "" }

// APIKey returns the ingestion API key resolved from the environment.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Load builds the configuration in three layers: defaults, the YAML file at
// path (skipped when path is empty), and environment variables. A .env file
// in the working directory, if present, is loaded into the environment first
// without overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		APIEndpoint:    DefaultAPIEndpoint,
		APIKeyEnv:      DefaultAPIKeyEnv,
		PollInterval:   DefaultPollInterval,
		RetryInterval:  DefaultRetryInterval,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
		Device: DeviceConfig{
			PasswordEnv: DefaultPasswordEnv,
		},
	}
}

// applyEnv overrides cfg with any of the Env* variables that are set.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAPIEndpoint); v != "" {
		cfg.APIEndpoint = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		cfg.Debug = true
	}
	if v := os.Getenv(EnvHostID); v != "" {
		cfg.HostID = v
	}
	if v := os.Getenv(EnvDeviceURL); v != "" {
		cfg.Device.URL = v
	}
	if v := os.Getenv(EnvPollingTime); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollingTime, err)
		}
		cfg.PollInterval = time.Duration(secs) * time.Second
	}
	if v := os.Getenv(EnvExporterListen); v != "" {
		cfg.Exporter.ListenAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("api_endpoint is required")
	}
	if cfg.APIKey() == "" {
		return fmt.Errorf("api key is required (env %s)", cfg.APIKeyEnv)
	}
	if cfg.HostID == "" {
		return fmt.Errorf("host_id is required")
	}
	if cfg.Device.URL == "" {
		return fmt.Errorf("device.url is required")
	}
	if cfg.Device.Password() == "" {
		return fmt.Errorf("device password is required (env %s)", cfg.Device.PasswordEnv)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("retry_interval must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	return nil
}
