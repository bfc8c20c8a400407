// Package config loads unibundle settings from the config file, environment
// and flags via viper.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete unibundle configuration
type Config struct {
	Merge   MergeConfig   `mapstructure:"merge"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// MergeConfig controls merge pipeline behavior
type MergeConfig struct {
	// ArchAgnosticPatterns lists glob patterns for plain files permitted to
	// differ between the two input bundles. The x64 copy is kept for
	// matching files. Default: empty, every plain file must match exactly.
	ArchAgnosticPatterns []string `mapstructure:"arch_agnostic_patterns"`
	// TempRoot is the parent directory for staging copies.
	// Empty means the system temp directory.
	TempRoot string `mapstructure:"temp_root"`
	// Report, when set, is a default path for the YAML merge report.
	Report string `mapstructure:"report"`
}

// LoggingConfig controls the structured log output
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (default: INFO)
	Level string `mapstructure:"level"`
}

// SetDefaults registers defaults so a missing config file still yields a
// usable Config.
func SetDefaults() {
	viper.SetDefault("merge.arch_agnostic_patterns", []string{})
	viper.SetDefault("merge.temp_root", "")
	viper.SetDefault("merge.report", "")
	viper.SetDefault("logging.level", "INFO")
}

// ConfigDir returns the directory unibundle looks in for its config file.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "unibundle")
}

// Load unmarshals the current viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
