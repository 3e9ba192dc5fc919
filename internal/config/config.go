// Package config loads and persists zoned's runtime configuration:
// logging, the debug protocol server, the optional web inspector, the
// maintenance reporter, and the path to the YAML world definition (spec
// §4.7, SPEC_FULL.md §2.2-§2.7).
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zoneai/zoneai/pkg/logger"
)

// Config is the application's configuration root.
type Config struct {
	Version     string            `mapstructure:"version" yaml:"version"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	DebugServer DebugServerConfig `mapstructure:"debug_server" yaml:"debug_server"`
	Inspector   InspectorConfig   `mapstructure:"inspector" yaml:"inspector"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" yaml:"maintenance"`
	World       WorldConfig       `mapstructure:"world" yaml:"world"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DebugServerConfig configures internal/debugserver.Server.
type DebugServerConfig struct {
	Address         string `mapstructure:"address" yaml:"address"`
	IdleTimeout     string `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ProtocolVersion string `mapstructure:"protocol_version" yaml:"protocol_version"`
}

// InspectorConfig configures the optional internal/inspector.Bridge
// (SPEC_FULL.md §2.6).
type InspectorConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// MaintenanceConfig configures the internal/maintenance.Reporter
// (SPEC_FULL.md §2.7).
type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// WorldConfig points at the YAML world definition consumed by
// internal/treedef and at the simulation's own tick rate.
type WorldConfig struct {
	DefinitionPath string `mapstructure:"definition_path" yaml:"definition_path"`
	TickInterval   string `mapstructure:"tick_interval" yaml:"tick_interval"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load reads configuration from path, layering in this priority: ENV >
// config file > defaults. An empty or missing path is not an error - the
// defaults stand alone.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("ZONEAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigParseError); ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the currently loaded configuration, or nil if Load
// has not been called.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Get returns an arbitrary configuration value by dotted key.
func Get(key string) any { return viper.Get(key) }

// GetString returns a string configuration value by dotted key.
func GetString(key string) string { return viper.GetString(key) }

// GetInt returns an integer configuration value by dotted key.
func GetInt(key string) int { return viper.GetInt(key) }

// GetBool returns a boolean configuration value by dotted key.
func GetBool(key string) bool { return viper.GetBool(key) }

// Set updates a configuration value and persists it if a config file
// path is known.
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)
	if configPath != "" {
		return save()
	}
	return nil
}

// Save persists the currently loaded configuration to its file.
func Save() error {
	mu.Lock()
	defer mu.Unlock()
	return save()
}

func save() error {
	if configPath == "" {
		return errors.New("config path not set")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}

// SaveTo writes cfg as YAML to path, independent of the global config
// state.
func SaveTo(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Reset clears all loaded configuration state. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}

// SetTestConfig installs cfg as the global configuration without going
// through Load. Intended for tests.
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = cfg
}

// ApplyLogging initializes pkg/logger from cfg.Log. Split out from Load
// so callers (tests, the CLI) control exactly when logging is wired up.
func ApplyLogging(cfg *Config) error {
	return logger.Init(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
}
