// Package config loads aotnav's runtime settings from file, environment,
// and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to run.
type Config struct {
	// CodebasePath is the root of the D365 package tree to index.
	CodebasePath string `mapstructure:"codebase_path"`
	// CacheDir holds the SQLite store, the legacy flat index, and the
	// build lock. Defaults to ~/.aotnav/cache.
	CacheDir string `mapstructure:"cache_dir"`
	// CatalogFile optionally points at a JSON type-catalog file;
	// empty means the built-in table.
	CatalogFile string `mapstructure:"catalog_file"`
	// CatalogSnapshotMaxAgeHours bounds staleness of the cached
	// reflection snapshot before the loader falls back.
	CatalogSnapshotMaxAgeHours int `mapstructure:"catalog_snapshot_max_age_hours"`

	LogLevel  string `mapstructure:"log_level"`
	LogOutput string `mapstructure:"log_output"` // "stderr" or a file path
}

// Load reads configuration from the given file (optional — searched in
// the working directory and ~/.aotnav when empty) and the AOTNAV_*
// environment, applying defaults for everything unset.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	// Every key needs a default registered or Unmarshal will not see its
	// environment override.
	v.SetDefault("codebase_path", "")
	v.SetDefault("catalog_file", "")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("catalog_snapshot_max_age_hours", 24)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_output", "stderr")

	v.SetEnvPrefix("AOTNAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("aotnav")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".aotnav"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
		// No config file is fine: env and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the settings the index core depends on are
// usable.
func (c *Config) Validate() error {
	if c.CodebasePath == "" {
		return fmt.Errorf("config: codebase_path is required (set AOTNAV_CODEBASE_PATH or the config file)")
	}
	if fi, err := os.Stat(c.CodebasePath); err != nil || !fi.IsDir() {
		return fmt.Errorf("config: codebase_path %q is not a readable directory", c.CodebasePath)
	}
	return nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".aotnav", "cache")
	}
	return filepath.Join(home, ".aotnav", "cache")
}
