// Package sqlite stores converted lookup tables in a single SQLite file so
// individual words can be queried without loading a whole JSON table.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Store implements converter.Sink on top of SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path with WAL mode enabled and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS dictionaries (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	headwords INTEGER NOT NULL,
	generated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lookup (
	dictionary TEXT NOT NULL,
	headword TEXT NOT NULL,
	position INTEGER NOT NULL,
	translations TEXT NOT NULL,
	PRIMARY KEY(dictionary, headword),
	FOREIGN KEY(dictionary) REFERENCES dictionaries(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lookup_position ON lookup(dictionary, position);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save replaces the table stored under dictionary in one transaction.
func (s *Store) Save(ctx context.Context, dictionary, source string, l *domain.Lookup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is a per-connection pragma, so rows are removed explicitly
	// instead of relying on the cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM lookup WHERE dictionary = ?`, dictionary); err != nil {
		return fmt.Errorf("delete %s rows: %w", dictionary, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dictionaries WHERE name = ?`, dictionary); err != nil {
		return fmt.Errorf("delete %s: %w", dictionary, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dictionaries (name, source, headwords, generated_at) VALUES (?, ?, ?, ?)`,
		dictionary, source, l.Len(), s.now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert dictionary %s: %w", dictionary, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lookup (dictionary, headword, position, translations) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare lookup insert: %w", err)
	}
	defer stmt.Close()

	position := 0
	for headword, translations := range l.All() {
		encoded, err := encodeValues(translations)
		if err != nil {
			return fmt.Errorf("encode %q: %w", headword, err)
		}
		if _, err := stmt.ExecContext(ctx, dictionary, headword, position, encoded); err != nil {
			return fmt.Errorf("insert %q: %w", headword, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Lookup returns the translations of word in dictionary. The word is
// normalized the same way headwords are. Returns domain.ErrNotFound when
// the dictionary has no such headword.
func (s *Store) Lookup(ctx context.Context, dictionary, word string) ([]string, error) {
	key := domain.NormalizeKey(word)
	if key == "" {
		return nil, domain.ErrNotFound
	}

	query, args, err := squirrel.Select("translations").
		From("lookup").
		Where(squirrel.Eq{"dictionary": dictionary, "headword": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var encoded string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}

	var translations []string
	if err := json.Unmarshal([]byte(encoded), &translations); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return translations, nil
}

// Load reads a whole stored table back in its original key order.
func (s *Store) Load(ctx context.Context, dictionary string) (*domain.Lookup, error) {
	query, args, err := squirrel.Select("headword", "translations").
		From("lookup").
		Where(squirrel.Eq{"dictionary": dictionary}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dictionary, err)
	}
	defer rows.Close()

	l := domain.NewLookup()
	for rows.Next() {
		var headword, encoded string
		if err := rows.Scan(&headword, &encoded); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var translations []string
		if err := json.Unmarshal([]byte(encoded), &translations); err != nil {
			return nil, fmt.Errorf("decode %q: %w", headword, err)
		}
		l.Add(headword, translations...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", dictionary, err)
	}
	return l, nil
}

// Dictionaries lists the stored tables ordered by name.
func (s *Store) Dictionaries(ctx context.Context) ([]domain.DictionaryInfo, error) {
	query, args, err := squirrel.Select("name", "source", "headwords", "generated_at").
		From("dictionaries").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dictionaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DictionaryInfo
	for rows.Next() {
		var (
			info        domain.DictionaryInfo
			generatedAt string
		)
		if err := rows.Scan(&info.Name, &info.Source, &info.Headwords, &generatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if info.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt); err != nil {
			return nil, fmt.Errorf("parse generated_at %q: %w", generatedAt, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// encodeValues renders translations as a JSON array with <, > and &
// kept literal, matching the JSON tables.
func encodeValues(values []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
