package config

import (
	"context"
	"time"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Config is the root converter configuration.
type Config struct {
	// BaseDir is where TEI sources are resolved from. Defaults to the
	// directory of the running executable.
	BaseDir string `yaml:"base_dir" env:"TEICONV_BASE_DIR"`
	// OutputDir receives the JSON tables. Defaults to BaseDir.
	OutputDir string `yaml:"output_dir" env:"TEICONV_OUTPUT_DIR"`
	// Pairs lists the dictionaries to convert. Defaults to domain.DefaultPairs.
	Pairs []domain.Pair `yaml:"pairs" env:"-"`

	DryRun bool `yaml:"dry_run" env:"TEICONV_DRY_RUN"`
	// Timeout bounds a whole run. Zero means no deadline.
	Timeout      time.Duration `yaml:"timeout"       env:"TEICONV_TIMEOUT"       env-default:"0s"`
	ManifestPath string        `yaml:"manifest_path" env:"TEICONV_MANIFEST_PATH"`

	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// RunContext derives the context of a whole run, bounded by Timeout when set.
func (c *Config) RunContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout == 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

// SQLiteConfig holds the optional SQLite lookup export settings.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"TEICONV_SQLITE_PATH"`
}

// Enabled reports whether the SQLite export is configured.
func (c SQLiteConfig) Enabled() bool { return c.Path != "" }

// DatabaseConfig holds the optional PostgreSQL lookup export settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	BatchSize       int           `yaml:"batch_size"         env:"DATABASE_BATCH_SIZE"         env-default:"1000"`
}

// Enabled reports whether the PostgreSQL export is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
