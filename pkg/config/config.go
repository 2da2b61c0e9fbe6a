// Package config loads project-level PageForge configuration from a
// .pageforge.toml file. Configuration supplies defaults for the CLI; flags
// always win over the file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
)

// DefaultFilename is the config file looked up in the working directory.
const DefaultFilename = ".pageforge.toml"

// Config holds project-level defaults.
type Config struct {
	// Formats are the default conversion targets.
	Formats []string `toml:"formats"`

	// OutputDir is where converted pages are written.
	OutputDir string `toml:"output_dir"`

	// Minify enables output minification by default.
	Minify bool `toml:"minify"`

	// Strict escalates validation warnings to errors.
	Strict bool `toml:"strict"`

	// Vars are default {{ variable }} substitutions.
	Vars map[string]string `toml:"vars"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects the template cache backend.
type CacheConfig struct {
	// Dir is the file cache directory. Empty selects the default under the
	// user cache dir.
	Dir string `toml:"dir"`

	// RedisURL switches the cache to Redis when set
	// (e.g. "redis://localhost:6379/0").
	RedisURL string `toml:"redis_url"`

	// Disabled turns template caching off entirely.
	Disabled bool `toml:"disabled"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Formats:   []string{"html"},
		OutputDir: ".",
		Server:    ServerConfig{Addr: "localhost:8080"},
	}
}

// Load reads a config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeSchema, err, "invalid config file %q", path)
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"html"}
	}
	return cfg, nil
}

// LoadFromDir looks for DefaultFilename in dir and its parents, returning
// the defaults when no file exists.
func LoadFromDir(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Default(), nil
	}
	for {
		path := filepath.Join(abs, DefaultFilename)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return Default(), nil
		}
		abs = parent
	}
}

// CacheDir returns the configured file cache directory, defaulting to a
// pageforge subdirectory of the user cache dir.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ".pageforge-cache"
	}
	return filepath.Join(base, "pageforge")
}
