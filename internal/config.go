package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIBase  = "WAKECHAT_API_BASE"
	EnvDBPath   = "WAKECHAT_DB"
	EnvLogLevel = "WAKECHAT_LOG_LEVEL"
	EnvLogFile  = "WAKECHAT_LOG_FILE"
)

// Config is resolved once at startup and never re-read
type Config struct {
	APIBase string `yaml:"api_base"`

	// AskTimeout bounds conversational requests; UploadTimeout bounds upload and import bodies.
	AskTimeout    time.Duration `yaml:"ask_timeout"`
	UploadTimeout time.Duration `yaml:"upload_timeout"`

	// WakeTimeout bounds the health probe; WakeDelay is the pause after a failed probe.
	WakeTimeout time.Duration `yaml:"wake_timeout"`
	WakeDelay   time.Duration `yaml:"wake_delay"`

	PersistDelay time.Duration `yaml:"persist_delay"`

	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		APIBase:       "http://127.0.0.1:8000",
		AskTimeout:    30 * time.Second,
		UploadTimeout: 120 * time.Second,
		WakeTimeout:   90 * time.Second,
		WakeDelay:     3 * time.Second,
		PersistDelay:  500 * time.Millisecond,
		LogLevel:      "info",
	}
}

// LoadConfig layers defaults, the YAML file, the .env file and the environment.
// A missing config or .env file is not an error; a malformed one is.
func LoadConfig(paths DataPaths, configPath string) (Config, error) {
	cfg := DefaultConfig()
	cfg.DBPath = paths.DBPath

	explicit := configPath != ""
	if !explicit {
		configPath = paths.ConfigPath
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
		LogDebug("Loaded config from %s", configPath)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// .env never overrides variables that are already set
	if paths.EnvPath != "" {
		if err := godotenv.Load(paths.EnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			LogWarn("Failed to load %s: %v", paths.EnvPath, err)
		}
	}
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIBase); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}

	cfg.APIBase = strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	return cfg, cfg.Validate()
}

// Validate checks required fields and fills zero durations with defaults
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base must not be empty")
	}
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api_base must be an http(s) URL: %q", c.APIBase)
	}

	def := DefaultConfig()
	if c.AskTimeout <= 0 {
		c.AskTimeout = def.AskTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = def.UploadTimeout
	}
	if c.WakeTimeout <= 0 {
		c.WakeTimeout = def.WakeTimeout
	}
	if c.WakeDelay < 0 {
		c.WakeDelay = 0
	}
	if c.PersistDelay <= 0 {
		c.PersistDelay = def.PersistDelay
	}
	return nil
}
