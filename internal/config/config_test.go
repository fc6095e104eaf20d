package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "teiconv.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

// stubExecutableDir makes the executable directory deterministic.
func stubExecutableDir(t *testing.T, dir string) {
	t.Helper()
	orig := executableDir
	executableDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { executableDir = orig })
}

const validYAML = `
base_dir: "/data/freedict"
output_dir: "/data/out"
timeout: "5m"
manifest_path: "/data/out/manifest.yaml"

pairs:
  - source: "freedict-eng-nld-0.2.src/eng-nld/eng-nld.tei"
    output: "eng-nld.json"
  - source: "freedict-ita-nld/ita-nld.tei"
    output: "ita-nld.json"

sqlite:
  path: "/data/out/lookup.db"

database:
  dsn: "postgres://u:p@localhost:5432/lookup"
  max_conns: 2
  batch_size: 250

log:
  level: "debug"
  format: "json"
`

func TestLoad_ValidYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/freedict", cfg.BaseDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, "/data/out/manifest.yaml", cfg.ManifestPath)
	assert.Equal(t, []domain.Pair{
		{Source: "freedict-eng-nld-0.2.src/eng-nld/eng-nld.tei", Output: "eng-nld.json"},
		{Source: "freedict-ita-nld/ita-nld.tei", Output: "ita-nld.json"},
	}, cfg.Pairs)

	assert.True(t, cfg.SQLite.Enabled())
	assert.Equal(t, "/data/out/lookup.db", cfg.SQLite.Path)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, int32(2), cfg.Database.MaxConns)
	assert.Equal(t, int32(1), cfg.Database.MinConns, "default")
	assert.Equal(t, 250, cfg.Database.BatchSize)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("TEICONV_OUTPUT_DIR", "/tmp/elsewhere")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/elsewhere", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	stubExecutableDir(t, "/opt/teiconv")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/teiconv", cfg.BaseDir)
	assert.Equal(t, "/opt/teiconv", cfg.OutputDir)
	assert.Equal(t, domain.DefaultPairs(), cfg.Pairs)
	assert.Zero(t, cfg.Timeout, "no deadline by default")
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.SQLite.Enabled())
	assert.False(t, cfg.Database.Enabled())
	assert.Empty(t, cfg.ManifestPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExecutableDirError(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	orig := executableDir
	executableDir = func() (string, error) { return "", errors.New("no executable") }
	t.Cleanup(func() { executableDir = orig })

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(t.TempDir()))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve executable directory")
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/teiconv.yaml")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "pairs: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeYAML(t, t.TempDir(), `
base_dir: "/data"
pairs:
  - source: "a.tei"
    output: "a.xml"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func validConfig() *Config {
	return &Config{
		BaseDir:   "/data",
		OutputDir: "/data",
		Pairs:     domain.DefaultPairs(),
		Timeout:   time.Minute,
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.Timeout = -time.Second },
			field:  "timeout",
		},
		{
			name: "batch size with database enabled",
			mutate: func(c *Config) {
				c.Database.DSN = "postgres://localhost/x"
				c.Database.BatchSize = 0
			},
			field: "database.batch_size",
		},
		{
			name:   "empty source",
			mutate: func(c *Config) { c.Pairs[0].Source = " " },
			field:  "pairs[0].source",
		},
		{
			name:   "output not json",
			mutate: func(c *Config) { c.Pairs[1].Output = "deu-nld.txt" },
			field:  "pairs[1].output",
		},
		{
			name:   "output is a path",
			mutate: func(c *Config) { c.Pairs[0].Output = "out/eng-nld.json" },
			field:  "pairs[0].output",
		},
		{
			name:   "bad language code",
			mutate: func(c *Config) { c.Pairs[2].Output = "1-nld.json" },
			field:  "pairs[2].output",
		},
		{
			name:   "duplicate output",
			mutate: func(c *Config) { c.Pairs[2].Output = "eng-nld.json" },
			field:  "pairs[2].output",
		},
		{
			name:   "reverse overwrites forward",
			mutate: func(c *Config) { c.Pairs[2].Output = "nld-eng.json" },
			field:  "pairs[0].output",
		},
		{
			name:   "reverse collision",
			mutate: func(c *Config) { c.Pairs[1].Output = "eng-fra.json" },
			field:  "pairs[1].output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Errors, 1, "errors: %+v", verr.Errors)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = -time.Second
	cfg.Pairs[0].Source = ""

	var verr *domain.ValidationError
	require.True(t, errors.As(cfg.Validate(), &verr))
	assert.Len(t, verr.Errors, 2)
}

func TestConfig_Paths(t *testing.T) {
	cfg := &Config{BaseDir: "/data/in", OutputDir: "/data/out"}
	p := domain.Pair{Source: "freedict-eng-nld/eng-nld.tei", Output: "eng-nld.json"}

	assert.Equal(t, "/data/in/freedict-eng-nld/eng-nld.tei", cfg.SourcePath(p))
	assert.Equal(t, "/data/out/eng-nld.json", cfg.OutputPath(p.Output))
	assert.Equal(t, "/data/out/nld-eng.json", cfg.OutputPath(p.ReverseName()))
	assert.Equal(t, "/srv/eng-nld.tei", cfg.SourcePath(domain.Pair{Source: "/srv/eng-nld.tei"}))
}

func TestConfig_RunContext(t *testing.T) {
	t.Run("no deadline", func(t *testing.T) {
		ctx, cancel := (&Config{}).RunContext(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})

	t.Run("bounded", func(t *testing.T) {
		ctx, cancel := (&Config{Timeout: time.Minute}).RunContext(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})
}

func TestValidate_ZeroTimeoutAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = 0
	assert.NoError(t, cfg.Validate())
}
