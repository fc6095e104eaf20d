// Command lookup prints the translations of a word from a generated lookup
// table, one per line.
//
// Usage:
//
//	lookup [--config path] [--json file | --sqlite file] <dictionary> <word>
//	lookup [--config path] [--sqlite file] --list
//
// The table is read from, in order of preference: the --json file, the
// --sqlite file, the configured SQLite export, the configured PostgreSQL
// export, or <output_dir>/<dictionary>.json.
//
// Exit codes: 0 = found, 1 = error, 2 = word not found.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/freedict-lookup/internal/adapter/jsonfile"
	"github.com/heartmarshall/freedict-lookup/internal/adapter/postgres"
	"github.com/heartmarshall/freedict-lookup/internal/adapter/postgres/lookuprepo"
	"github.com/heartmarshall/freedict-lookup/internal/adapter/sqlite"
	"github.com/heartmarshall/freedict-lookup/internal/app"
	"github.com/heartmarshall/freedict-lookup/internal/config"
	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

const exitNotFound = 2

// store is the read side shared by the SQLite and PostgreSQL exports.
type store interface {
	Lookup(ctx context.Context, dictionary, word string) ([]string, error)
	Dictionaries(ctx context.Context) ([]domain.DictionaryInfo, error)
}

var (
	_ store = (*sqlite.Store)(nil)
	_ store = (*lookuprepo.Repo)(nil)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("lookup", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFlag := flags.String("config", "", "path to YAML config file")
	jsonFlag := flags.String("json", "", "read the table from this JSON file")
	sqliteFlag := flags.String("sqlite", "", "read the table from this SQLite file")
	listFlag := flags.Bool("list", false, "list the dictionaries stored in the database")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *jsonFlag != "" && *sqliteFlag != "" {
		fmt.Fprintln(stderr, "--json and --sqlite are mutually exclusive")
		return 1
	}
	if !*listFlag && flags.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: lookup [--config path] [--json file | --sqlite file] <dictionary> <word>")
		return 1
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	logger := app.NewLogger(stderr, cfg.Log)

	ctx, cancel := cfg.RunContext(context.Background())
	defer cancel()

	if *sqliteFlag != "" {
		cfg.SQLite.Path = *sqliteFlag
	}

	if *jsonFlag == "" && (cfg.SQLite.Enabled() || cfg.Database.Enabled()) {
		s, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			logger.Error("open store", slog.String("error", err.Error()))
			return 1
		}
		defer closeStore()

		if *listFlag {
			return list(ctx, logger, s, stdout)
		}
		translations, err := s.Lookup(ctx, flags.Arg(0), flags.Arg(1))
		return report(logger, stdout, stderr, flags.Arg(0), flags.Arg(1), translations, err)
	}

	if *listFlag {
		fmt.Fprintln(stderr, "--list needs a SQLite or PostgreSQL export")
		return 1
	}

	path := *jsonFlag
	if path == "" {
		path = cfg.OutputPath(flags.Arg(0) + ".json")
	}
	translations, err := lookupJSON(path, flags.Arg(1))
	return report(logger, stdout, stderr, flags.Arg(0), flags.Arg(1), translations, err)
}

// openStore prefers SQLite when both exports are configured.
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	if cfg.SQLite.Enabled() {
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return lookuprepo.New(pool, postgres.NewTxManager(pool), cfg.Database.BatchSize), pool.Close, nil
}

func lookupJSON(path, word string) ([]string, error) {
	l, err := jsonfile.Read(path)
	if err != nil {
		return nil, err
	}
	translations, ok := l.Get(domain.NormalizeKey(word))
	if !ok {
		return nil, domain.ErrNotFound
	}
	return translations, nil
}

func report(logger *slog.Logger, stdout, stderr io.Writer, dictionary, word string, translations []string, err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(stderr, "%s: %q not found\n", dictionary, word)
		return exitNotFound
	}
	if err != nil {
		logger.Error("lookup failed",
			slog.String("dictionary", dictionary),
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
		return 1
	}
	for _, t := range translations {
		fmt.Fprintln(stdout, t)
	}
	return 0
}

func list(ctx context.Context, logger *slog.Logger, s store, stdout io.Writer) int {
	dicts, err := s.Dictionaries(ctx)
	if err != nil {
		logger.Error("list dictionaries", slog.String("error", err.Error()))
		return 1
	}
	for _, d := range dicts {
		fmt.Fprintf(stdout, "%s\t%d\t%s\t%s\n", d.Name, d.Headwords, d.GeneratedAt.Format(time.RFC3339), d.Source)
	}
	return 0
}
