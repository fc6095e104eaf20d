package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/heartmarshall/freedict-lookup/internal/config"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), config.DatabaseConfig{DSN: "postgres://%zz"})
	if err == nil {
		t.Fatal("expected error for invalid DSN")
	}
	if !strings.Contains(err.Error(), "postgres export: parse dsn") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPoolConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		maxC    int32
		minC    int32
		life    time.Duration
		appName string
	}{
		{
			name: "configured limits",
			cfg: config.DatabaseConfig{
				DSN:             "postgres://u:p@localhost:5432/lookup",
				MaxConns:        3,
				MinConns:        2,
				MaxConnLifetime: 10 * time.Minute,
				MaxConnIdleTime: time.Minute,
			},
			maxC:    3,
			minC:    2,
			life:    10 * time.Minute,
			appName: ApplicationName,
		},
		{
			name:    "min clamped to max",
			cfg:     config.DatabaseConfig{DSN: "postgres://localhost/lookup", MaxConns: 2, MinConns: 5},
			maxC:    2,
			minC:    2,
			life:    time.Hour,
			appName: ApplicationName,
		},
		{
			name:    "application name from dsn kept",
			cfg:     config.DatabaseConfig{DSN: "postgres://localhost/lookup?application_name=nightly", MaxConns: 1},
			maxC:    1,
			minC:    0,
			life:    time.Hour,
			appName: "nightly",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := poolConfig(tt.cfg)
			if err != nil {
				t.Fatalf("poolConfig: %v", err)
			}
			if got.MaxConns != tt.maxC || got.MinConns != tt.minC {
				t.Errorf("conns = %d/%d, want %d/%d", got.MaxConns, got.MinConns, tt.maxC, tt.minC)
			}
			if got.MaxConnLifetime != tt.life {
				t.Errorf("MaxConnLifetime = %v, want %v", got.MaxConnLifetime, tt.life)
			}
			if name := got.ConnConfig.RuntimeParams["application_name"]; name != tt.appName {
				t.Errorf("application_name = %q, want %q", name, tt.appName)
			}
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			t.Errorf("unexpected embedded file %s", e.Name())
		}
	}
}
