package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sergev/sag/lang"
)

// Config holds interpreter settings read from a YAML file.
type Config struct {
	MaxDepth   int    `yaml:"max_depth"`
	ModuleRoot string `yaml:"module_root"` // imports resolve here instead of the script directory
	History    string `yaml:"history"`     // REPL history file; "-" disables history
	LogLevel   string `yaml:"log_level"`   // debug, info, warn or error
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() Config {
	return Config{
		MaxDepth: lang.DefaultMaxDepth,
		LogLevel: "warn",
	}
}

// DefaultConfigPath returns $HOME/.sag.yaml, or "" when there is no home directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".sag.yaml")
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.MaxDepth < 0 {
		return cfg, fmt.Errorf("%s: max_depth must not be negative", path)
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, err
	}
	return level, nil
}

// Apply copies the evaluator settings from c.
func (c Config) Apply(ev *lang.Evaluator) {
	if c.MaxDepth > 0 {
		ev.MaxDepth = c.MaxDepth
	}
}
