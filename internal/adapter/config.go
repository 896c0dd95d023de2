package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SourceType identifies where asset metadata comes from
type SourceType string

const (
	SourceTypeREST  SourceType = "rest"
	SourceTypeLocal SourceType = "local"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Index    IndexConfig    `mapstructure:"index"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Player   PlayerConfig   `mapstructure:"player"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds media server configuration
type ServerConfig struct {
	Type     SourceType    `mapstructure:"type"`      // "rest" or "local"
	URL      string        `mapstructure:"url"`       // REST API base URL
	MediaURL string        `mapstructure:"media_url"` // Prefix of asset locators
	Timeout  time.Duration `mapstructure:"timeout"`
	Listen   string        `mapstructure:"listen"` // Address for "baldr serve"
	Gzip     int           `mapstructure:"gzip"`   // Response compression level for "baldr serve", 0 disables
}

// IndexConfig holds the local metadata index configuration
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// ResolverConfig holds resolution behavior
type ResolverConfig struct {
	BestEffort  bool `mapstructure:"best_effort"` // Drop unreachable nested references instead of failing
	Concurrency int  `mapstructure:"concurrency"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	StartFlag string   `mapstructure:"start_flag"` // e.g., "--start=" or "--start-time="
	EndFlag   string   `mapstructure:"end_flag"`   // e.g., "--end=" or "--stop-time="
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // Empty logs to stderr
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Type:    SourceTypeLocal,
			URL:     "http://localhost:50000/api/media",
			Timeout: 30 * time.Second,
			Listen:  "localhost:50000",
			Gzip:    -1, // default compression
		},
		Index: IndexConfig{
			Path: filepath.Join(defaultDataPath(), "index.db"),
		},
		Resolver: ResolverConfig{
			Concurrency: 8,
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			Level: "WARN",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "baldr")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "baldr")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "baldr")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "baldr")
	}
}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"server-type": "server.type",
	"server-url":  "server.url",
	"media-url":   "server.media_url",
	"listen":      "server.listen",
	"index":       "index.path",
	"best-effort": "resolver.best_effort",
	"log-level":   "logging.level",
	"log-file":    "logging.file",
}

// AddFlags registers the flags LoadConfig understands.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: "+filepath.Join(defaultConfigPath(), "config.yaml")+")")
	flags.String("server-type", "", "metadata source: rest or local")
	flags.String("server-url", "", "REST API base URL")
	flags.String("media-url", "", "prefix of media file locators")
	flags.String("listen", "", "listen address for serve")
	flags.String("index", "", "path of the local metadata index")
	flags.Bool("best-effort", false, "skip nested references that cannot be resolved")
	flags.String("log-level", "", "DEBUG, INFO, WARN or ERROR")
	flags.String("log-file", "", "write JSON logs to this file instead of stderr")
}

// LoadConfig loads configuration from file, environment (BALDR_*) and the
// flags registered by AddFlags. flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	configFile := ""
	if flags != nil {
		configFile, _ = flags.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides
	v.SetEnvPrefix("BALDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply on
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.type", string(cfg.Server.Type))
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.media_url", cfg.Server.MediaURL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.gzip", cfg.Server.Gzip)
	v.SetDefault("index.path", cfg.Index.Path)
	v.SetDefault("resolver.best_effort", cfg.Resolver.BestEffort)
	v.SetDefault("resolver.concurrency", cfg.Resolver.Concurrency)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("player.start_flag", cfg.Player.StartFlag)
	v.SetDefault("player.end_flag", cfg.Player.EndFlag)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Server.Type {
	case SourceTypeREST:
		if c.Server.URL == "" {
			return errors.New("server URL is required for the rest source")
		}
	case SourceTypeLocal:
		if c.Index.Path == "" {
			return errors.New("index path is required for the local source")
		}
	default:
		return fmt.Errorf("unknown server type: %s", c.Server.Type)
	}
	if c.Resolver.Concurrency < 1 {
		return fmt.Errorf("resolver concurrency must be positive, got %d", c.Resolver.Concurrency)
	}
	return nil
}

// SaveConfig saves the configuration to the default config file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveConfigAs(cfg, filepath.Join(configPath, "config.yaml"))
}

// SaveConfigAs writes the configuration as YAML to path
func SaveConfigAs(cfg *Config, path string) error {
	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.type", string(cfg.Server.Type))
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.media_url", cfg.Server.MediaURL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.listen", cfg.Server.Listen)
	v.Set("server.gzip", cfg.Server.Gzip)
	v.Set("index.path", cfg.Index.Path)
	v.Set("resolver.best_effort", cfg.Resolver.BestEffort)
	v.Set("resolver.concurrency", cfg.Resolver.Concurrency)
	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)
	v.Set("player.start_flag", cfg.Player.StartFlag)
	v.Set("player.end_flag", cfg.Player.EndFlag)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
