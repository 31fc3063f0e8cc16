package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// WatcherConfig holds settings for the date-check and reminder
// schedulers.
type WatcherConfig struct {
	// ScanIntervalSec is how often (in seconds) the date-check scan runs.
	ScanIntervalSec int `mapstructure:"scan_interval_sec" yaml:"scan_interval_sec"`

	// ReminderIntervalSec is how often (in seconds) the reminder scan runs.
	ReminderIntervalSec int `mapstructure:"reminder_interval_sec" yaml:"reminder_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// UserID is the acting user the schedulers run on behalf of.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	// TeamIDs are the teams the acting user belongs to.
	TeamIDs []string `mapstructure:"team_ids" yaml:"team_ids"`

	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskwatch/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskwatch", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath: filepath.Join(".", "taskwatch.db"),
		Watcher: WatcherConfig{
			ScanIntervalSec:     60,
			ReminderIntervalSec: 60,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", filepath.Join(".", "taskwatch.db"))
	v.SetDefault("watcher.scan_interval_sec", 60)
	v.SetDefault("watcher.reminder_interval_sec", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Watcher.ScanIntervalSec <= 0 {
		cfg.Watcher.ScanIntervalSec = 60
	}
	if cfg.Watcher.ReminderIntervalSec <= 0 {
		cfg.Watcher.ReminderIntervalSec = 60
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("user_id", cfg.UserID)
	v.Set("team_ids", cfg.TeamIDs)
	v.Set("watcher", cfg.Watcher)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
