// The application's root configuration. Loaded once from viper in the
// root command and read everywhere else through the singleton.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Transport TransportConfig `mapstructure:"transport"`
	Session   SessionConfig   `mapstructure:"session"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// PortalConfig identifies the portal deployment and the account.
type PortalConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Username and Password may be left empty in the file and supplied
	// via ELOGIO_PORTAL_USERNAME / ELOGIO_PORTAL_PASSWORD instead.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Language string `mapstructure:"language"`
}

// TransportConfig holds settings for the impersonating HTTP helper.
type TransportConfig struct {
	HelperPath     string        `mapstructure:"helper_path"`
	HelperArgs     []string      `mapstructure:"helper_args"`
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	Impersonate    string        `mapstructure:"impersonate"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout"`
}

// SessionConfig holds settings for the session orchestrator.
type SessionConfig struct {
	// FetchConcurrency caps parallel week fetches in range queries.
	FetchConcurrency int `mapstructure:"fetch_concurrency"`
}

// Validate rejects configurations no component could work with.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if !strings.HasPrefix(c.Portal.BaseURL, "http://") && !strings.HasPrefix(c.Portal.BaseURL, "https://") {
		return fmt.Errorf("portal.base_url must be an absolute http(s) URL, got %q", c.Portal.BaseURL)
	}
	switch c.Transport.Mode {
	case "", "auto", "server", "process":
	default:
		return fmt.Errorf("transport.mode must be auto, server or process, got %q", c.Transport.Mode)
	}
	if c.Transport.Port < 0 || c.Transport.Port > 65535 {
		return fmt.Errorf("transport.port out of range: %d", c.Transport.Port)
	}
	if c.Session.FetchConcurrency < 0 {
		return fmt.Errorf("session.fetch_concurrency must not be negative")
	}
	return nil
}

// SetDefaults seeds viper so the app runs with a minimal config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "elogio")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("portal.language", "de")

	v.SetDefault("transport.mode", "auto")
	v.SetDefault("transport.port", 8753)
	v.SetDefault("transport.impersonate", "chrome_124")
	v.SetDefault("transport.request_timeout", 30*time.Second)
	v.SetDefault("transport.ready_timeout", 5*time.Second)

	v.SetDefault("session.fetch_concurrency", 4)
}

// Load initializes the configuration singleton from viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			loadErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
