package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "AWSINV_CONFIG"

// FileLoader reads Config from a YAML file.
type FileLoader struct {
	path string
}

// NewFileLoader returns a FileLoader for path. An empty path resolves to
// $AWSINV_CONFIG, then ~/.config/awsinv/config.yaml.
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = DefaultPath()
	}
	return &FileLoader{path: path}
}

// DefaultPath returns $AWSINV_CONFIG when set, otherwise
// ~/.config/awsinv/config.yaml. It returns "" when the home directory cannot
// be resolved.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "awsinv", "config.yaml")
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string { return l.path }

// Load implements Loader. A missing file yields an empty Config without an
// error. Every validation problem is reported in one joined error.
func (l *FileLoader) Load() (*Config, error) {
	cfg := &Config{}
	if l.path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, errors.Join(errs...))
	}
	return cfg, nil
}
