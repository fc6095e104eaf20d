// Command teiconv converts FreeDict TEI XML dictionaries into compact JSON
// lookup tables: one forward table per pair and one reverse table keyed by
// the Dutch translations. It is intended to be run offline.
//
// Run without arguments it converts the three default pairs found next to
// the executable and prints its progress to stdout.
//
// Flags:
//
//	--config   path to YAML config file (default: $CONFIG_PATH or ./teiconv.yaml)
//	--dry-run  parse dictionaries without writing any output
//	--pairs    comma-separated forward output names to convert (default: all)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/freedict-lookup/internal/adapter/postgres"
	"github.com/heartmarshall/freedict-lookup/internal/adapter/postgres/lookuprepo"
	"github.com/heartmarshall/freedict-lookup/internal/adapter/sqlite"
	"github.com/heartmarshall/freedict-lookup/internal/app"
	"github.com/heartmarshall/freedict-lookup/internal/app/converter"
	"github.com/heartmarshall/freedict-lookup/internal/config"
	"github.com/heartmarshall/freedict-lookup/pkg/ctxutil"
)

// Compile-time interface assertions.
var (
	_ converter.Sink = (*sqlite.Store)(nil)
	_ converter.Sink = (*lookuprepo.Repo)(nil)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("teiconv", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFlag := flags.String("config", "", "path to YAML config file")
	dryRunFlag := flags.Bool("dry-run", false, "parse dictionaries without writing any output")
	pairsFlag := flags.String("pairs", "", "comma-separated forward output names to convert (default: all)")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	logger := app.NewLogger(stderr, cfg.Log)

	// CLI flags override config.
	if *dryRunFlag {
		cfg.DryRun = true
	}

	var only []string
	if *pairsFlag != "" {
		for _, name := range strings.Split(*pairsFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				only = append(only, name)
			}
		}
	}

	ctx, cancel := cfg.RunContext(context.Background())
	defer cancel()

	runID := converter.NewRunID()
	ctx = ctxutil.WithRunID(ctx, runID)

	logger.Info("starting conversion",
		slog.String("version", app.BuildVersion()),
		slog.String("run_id", runID),
		slog.String("base_dir", cfg.BaseDir),
		slog.String("output_dir", cfg.OutputDir),
		slog.Bool("dry_run", cfg.DryRun),
	)

	sinks, closeSinks, err := openSinks(ctx, logger, cfg)
	if err != nil {
		logger.Error("open sinks", slog.String("error", err.Error()))
		return 1
	}
	defer closeSinks()

	pipeline := converter.NewPipeline(logger, cfg, converter.NewReporter(stdout), converter.Options{
		Sinks:   sinks,
		Version: app.BuildVersion(),
	})
	if err := pipeline.Run(ctx, only); err != nil {
		logger.Error("conversion failed", slog.String("error", err.Error()))
		return 1
	}

	return 0
}

// openSinks connects the optional database exports. Nothing is opened on a
// dry run.
func openSinks(ctx context.Context, logger *slog.Logger, cfg *config.Config) ([]converter.Sink, func(), error) {
	var (
		sinks   []converter.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DryRun {
		return nil, closeAll, nil
	}

	if cfg.SQLite.Enabled() {
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = store.Close() })
		sinks = append(sinks, store)
		logger.Info("sqlite export enabled", slog.String("path", cfg.SQLite.Path))
	}

	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect to database: %w", err)
		}
		closers = append(closers, pool.Close)

		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("migrate database: %w", err)
		}
		sinks = append(sinks, lookuprepo.New(pool, postgres.NewTxManager(pool), cfg.Database.BatchSize))
		logger.Info("postgres export enabled", slog.Int("migrations_applied", applied))
	}

	return sinks, closeAll, nil
}
