package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// defaultPath is tried when neither the path argument nor CONFIG_PATH is set.
const defaultPath = "./teiconv.yaml"

// executableDir is replaced in tests.
var executableDir = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML path is path if non-empty, else CONFIG_PATH, else "./teiconv.yaml".
// If the file does not exist and no path was given explicitly, configuration
// is loaded from ENV + defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicitPath := path != ""
	if !explicitPath {
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills the settings whose defaults are not static values.
func (c *Config) applyDefaults() error {
	if c.BaseDir == "" {
		dir, err := executableDir()
		if err != nil {
			return fmt.Errorf("resolve executable directory: %w", err)
		}
		c.BaseDir = dir
	}
	if c.OutputDir == "" {
		c.OutputDir = c.BaseDir
	}
	if len(c.Pairs) == 0 {
		c.Pairs = domain.DefaultPairs()
	}
	return nil
}

// SourcePath returns the absolute TEI path of p.
func (c *Config) SourcePath(p domain.Pair) string {
	return absJoin(c.BaseDir, p.Source)
}

// OutputPath returns the absolute path of an output file name.
func (c *Config) OutputPath(name string) string {
	return absJoin(c.OutputDir, name)
}

// absJoin resolves name against dir unless name is already absolute.
func absJoin(dir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	joined := filepath.Join(dir, name)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}
