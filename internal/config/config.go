// Package config resolves the database root and loads burrow.yml.
//
// The root is resolved in precedence order: the --db flag, the
// BURROW_DB environment variable, the nearest ancestor directory
// holding a burrow.yml marker, and finally the per-user data directory
// (XDG_DATA_HOME or ~/.local/share). The marker file doubles as the
// configuration file, so any database created by clone or sync is
// discoverable from inside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration and marker file at the database root.
const FileName = "burrow.yml"

// EnvRoot overrides database root discovery when set.
const EnvRoot = "BURROW_DB"

// Config represents the settings read from burrow.yml.
type Config struct {
	// FetchTimeout bounds one feed download and parse.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Concurrency caps parallel feed fetches.
	Concurrency int `mapstructure:"concurrency"`

	// LogFile enables rotated file logging when set.
	LogFile string `mapstructure:"log_file"`

	// NoColor disables styled terminal output.
	NoColor bool `mapstructure:"no_color"`
}

// Load reads burrow.yml from root, falling back to defaults when the
// file is absent. Environment variables with the BURROW prefix override
// file values (BURROW_CONCURRENCY, BURROW_LOG_FILE, ...).
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(root, FileName))
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BURROW")
	v.AutomaticEnv()

	v.SetDefault("fetch_timeout", 30*time.Second)
	v.SetDefault("concurrency", 8)
	v.SetDefault("log_file", "")
	v.SetDefault("no_color", false)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// WriteMarker creates a default burrow.yml at root if none exists.
// Clone and the first sync call this so the root stays discoverable.
func WriteMarker(root string) error {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := "# burrow database\n# see burrow(1) for available settings\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// ResolveRoot picks the database root directory. flagValue comes from
// --db and wins outright; the fallback chain is documented on the
// package. The returned path may not exist yet.
func ResolveRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return filepath.Abs(env)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	if root, ok := findMarker(cwd); ok {
		return root, nil
	}

	return defaultRoot()
}

// findMarker walks from dir to the filesystem root looking for a
// burrow.yml marker.
func findMarker(dir string) (string, bool) {
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func defaultRoot() (string, error) {
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, "burrow"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "burrow"), nil
}
