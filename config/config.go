package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ServerConfig defines the HTTP server configuration.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AppInfo identifies the application in system info and health output.
type AppInfo struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// WatcherConfig defines how watched directories are registered and how
// their events are delivered.
type WatcherConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	IgnoreDirs      []string `mapstructure:"ignore_dirs"`
	IgnorePrefixes  []string `mapstructure:"ignore_prefixes"`
	MaxDepth        int      `mapstructure:"max_depth"`
	EventsPerSecond float64  `mapstructure:"events_per_second"`
	Buffer          int      `mapstructure:"buffer"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	App     AppInfo       `mapstructure:"app"`
	Logging LoggingConfig `mapstructure:"logging"`
	Watcher WatcherConfig `mapstructure:"watcher"`
}

// AppConfig holds the loaded configuration.
var AppConfig *Config

// EnvPrefix is prepended to every environment override, e.g.
// DRILLSARGEANT_SERVER_PORT.
const EnvPrefix = "DRILLSARGEANT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 1420)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"tauri://localhost", "http://localhost:1420"})

	v.SetDefault("app.name", "DrillSargeant Desktop")
	v.SetDefault("app.version", "v1.0")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.ignore_dirs", []string{".git", "node_modules", "vendor", "dist", "build", "target"})
	v.SetDefault("watcher.ignore_prefixes", []string{"."})
	v.SetDefault("watcher.max_depth", 5)
	v.SetDefault("watcher.events_per_second", 50.0)
	v.SetDefault("watcher.buffer", 64)
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: default values do not decode: %v", err))
	}
	return &cfg
}

// Load reads the configuration from path (or ./config.yaml when path is
// empty), applies environment overrides and returns the result without
// touching AppConfig. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Debugf("Ignoring .env file: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			logrus.Debug("No config.yaml found, using defaults")
		case path != "" && errors.Is(err, os.ErrNotExist):
			logrus.Debugf("Config file %s does not exist, using defaults", path)
		default:
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration into AppConfig.
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Watcher.MaxDepth < 0 {
		return fmt.Errorf("watcher.max_depth must not be negative, got %d", c.Watcher.MaxDepth)
	}
	if c.Watcher.EventsPerSecond < 0 {
		return fmt.Errorf("watcher.events_per_second must not be negative, got %v", c.Watcher.EventsPerSecond)
	}
	return nil
}

// Current returns AppConfig, falling back to the defaults when nothing was
// loaded.
func Current() *Config {
	if AppConfig == nil {
		return Default()
	}
	return AppConfig
}
