package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnvPath names an environment variable that points at a config file. It
// is consulted after the compiled-in override.
const EnvPath = "ANNOTATOR_CONFIG"

// Loader finds, reads and writes the RC file.
type Loader struct {
	Version      string // "dev" also looks for ./.annotatorrc
	OverridePath string
}

func NewLoader(version string, overridePath string) *Loader {
	return &Loader{Version: version, OverridePath: overridePath}
}

// candidates lists config locations in lookup order.
func (l *Loader) candidates() []string {
	var paths []string
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if p := os.Getenv(EnvPath); p != "" {
		paths = append(paths, p)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".annotatorrc"))
		}
	}
	if dir, err := userDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.rc"), filepath.Join(dir, "annotator.rc"))
	}
	return paths
}

func userDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "annotator"), nil
}

// Path returns the first existing config file, or "" when there is none.
func (l *Loader) Path() string {
	for _, p := range l.candidates() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load parses the first config file found. Without one the defaults apply.
func (l *Loader) Load() (*Config, error) {
	path := l.Path()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the override path, or to config.rc in the user config
// directory, and returns where it went.
func (l *Loader) Save(cfg *Config) (string, error) {
	path := l.OverridePath
	if path == "" {
		dir, err := userDir()
		if err != nil {
			return "", errors.New("no user config directory")
		}
		path = filepath.Join(dir, "config.rc")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, []byte(cfg.String()), 0o644)
}
