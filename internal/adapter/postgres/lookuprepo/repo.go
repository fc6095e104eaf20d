// Package lookuprepo stores converted lookup tables in PostgreSQL.
// A table is written as a whole and replaced as a whole; rows are never
// updated in place.
package lookuprepo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/freedict-lookup/internal/adapter/postgres"
	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

const defaultBatchSize = 1000

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides lookup table persistence backed by PostgreSQL.
type Repo struct {
	pool      *pgxpool.Pool
	txm       *postgres.TxManager
	batchSize int
	now       func() time.Time
}

// New creates a new lookup repository. Rows are sent in pgx batches of
// batchSize statements.
func New(pool *pgxpool.Pool, txm *postgres.TxManager, batchSize int) *Repo {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Repo{pool: pool, txm: txm, batchSize: batchSize, now: time.Now}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Save replaces the table stored under dictionary inside one transaction.
func (r *Repo) Save(ctx context.Context, dictionary, source string, l *domain.Lookup) error {
	return r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		// Entries of the previous version go with it (ON DELETE CASCADE).
		if _, err := q.Exec(ctx, `DELETE FROM dictionaries WHERE name = $1`, dictionary); err != nil {
			return postgres.MapError(err, "dictionary", dictionary)
		}

		id := uuid.New()
		if _, err := q.Exec(ctx,
			`INSERT INTO dictionaries (id, name, source, headwords, generated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, dictionary, source, l.Len(), r.now().UTC(),
		); err != nil {
			return postgres.MapError(err, "dictionary", dictionary)
		}

		inserted, err := r.insertEntries(ctx, id, l)
		if err != nil {
			return postgres.MapError(err, "dictionary", dictionary)
		}
		if inserted != l.Len() {
			return fmt.Errorf("dictionary %s: inserted %d of %d entries", dictionary, inserted, l.Len())
		}
		return nil
	})
}

func (r *Repo) insertEntries(ctx context.Context, dictionaryID uuid.UUID, l *domain.Lookup) (int, error) {
	batch := &pgx.Batch{}
	inserted := 0
	position := 0

	for headword, translations := range l.All() {
		batch.Queue(
			`INSERT INTO lookup_entries (dictionary_id, headword, position, translations)
			 VALUES ($1, $2, $3, $4)`,
			dictionaryID, headword, position, translations,
		)
		position++

		if batch.Len() >= r.batchSize {
			n, err := r.sendBatchExec(ctx, batch)
			inserted += n
			if err != nil {
				return inserted, err
			}
			batch = &pgx.Batch{}
		}
	}

	if batch.Len() > 0 {
		n, err := r.sendBatchExec(ctx, batch)
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch exec: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Lookup returns the translations of word in dictionary. The word is
// normalized the same way headwords are. Returns domain.ErrNotFound if the
// dictionary has no such headword.
func (r *Repo) Lookup(ctx context.Context, dictionary, word string) ([]string, error) {
	key := domain.NormalizeKey(word)
	if key == "" {
		return nil, fmt.Errorf("lookup %s/%q: %w", dictionary, word, domain.ErrNotFound)
	}

	query, args, err := psql.Select("e.translations").
		From("lookup_entries e").
		Join("dictionaries d ON d.id = e.dictionary_id").
		Where(squirrel.Eq{"d.name": dictionary, "e.headword": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var translations []string
	err = postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&translations)
	if err != nil {
		return nil, postgres.MapError(err, "lookup", dictionary+"/"+key)
	}
	return translations, nil
}

// Load reads a whole stored table back in its original key order.
func (r *Repo) Load(ctx context.Context, dictionary string) (*domain.Lookup, error) {
	query, args, err := psql.Select("e.headword", "e.translations").
		From("lookup_entries e").
		Join("dictionaries d ON d.id = e.dictionary_id").
		Where(squirrel.Eq{"d.name": dictionary}).
		OrderBy("e.position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "dictionary", dictionary)
	}
	defer rows.Close()

	l := domain.NewLookup()
	for rows.Next() {
		var (
			headword     string
			translations []string
		)
		if err := rows.Scan(&headword, &translations); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		l.Add(headword, translations...)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "dictionary", dictionary)
	}
	return l, nil
}

// Dictionaries lists the stored tables ordered by name.
func (r *Repo) Dictionaries(ctx context.Context) ([]domain.DictionaryInfo, error) {
	query, args, err := psql.Select("name", "source", "headwords", "generated_at").
		From("dictionaries").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dictionaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DictionaryInfo
	for rows.Next() {
		var info domain.DictionaryInfo
		if err := rows.Scan(&info.Name, &info.Source, &info.Headwords, &info.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		info.GeneratedAt = info.GeneratedAt.UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}
