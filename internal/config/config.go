// Package config holds the client-side configuration: where the local event
// file lives and how to reach the sync server. The file is YAML, created on
// first run, and kept at 0600 because it stores the bearer token.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk client configuration.
type Config struct {
	// ServerURL is the base URL of the sync server, e.g. "https://example.com".
	// Empty means sync is not set up on this device.
	ServerURL string `yaml:"server_url"`

	// Code is the 6-character account code shared across devices.
	Code string `yaml:"code,omitempty"`

	// Token is the bearer token issued for Code. Secret.
	Token string `yaml:"token,omitempty"`

	// DataFile is the path of the local event collection.
	DataFile string `yaml:"data_file"`
}

// DefaultPath returns the per-user config location, honoring
// DOSETRACK_CONFIG when set.
func DefaultPath() (string, error) {
	if p := os.Getenv("DOSETRACK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dosetrack", "config.yaml"), nil
}

// Default returns an in-memory default configuration rooted next to path.
func Default(path string) *Config {
	return &Config{
		DataFile: filepath.Join(filepath.Dir(path), "events.json"),
	}
}

// Normalize fills in missing values so partially-written configs from older
// versions still behave.
func (c *Config) Normalize(path string) {
	if c.DataFile == "" {
		c.DataFile = filepath.Join(filepath.Dir(path), "events.json")
	}
}

// Load reads the configuration at path. On first run the file does not exist
// yet: a default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default(path)
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize(path)

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) and ensures
// 0600 permissions before the file becomes visible.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dosetrack-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save so call sites can mutate and
// persist in one flow.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
