package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/db"
	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	err = resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		OnRetry:        resilience.RetryLogger("postgres_ping"),
	}, pool.Ping)
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	nome       TEXT NOT NULL DEFAULT '',
	instalacao TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL,
	original   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
	record_id  TEXT PRIMARY KEY REFERENCES records(id) ON DELETE CASCADE,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_position ON records(position);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var recordColumns = []string{"id", "position", "nome", "instalacao", "data", "original", "updated_at"}

// recordUpsert keeps a re-imported record at its first position.
var recordUpsert = db.UpsertSpec{
	Table:   "records",
	Columns: recordColumns,
	Key:     []string{"id"},
	Keep:    []string{"position"},
}

// stagedRecord is one record row awaiting COPY. offset is the record's first
// index in the import batch.
type stagedRecord struct {
	rec    *model.CustomerRecord
	offset int
	data   []byte
}

// stageRecords collapses repeated ids: the last occurrence supplies the data,
// the first its position. A merge may not touch the same row twice.
func stageRecords(records []*model.CustomerRecord) ([]stagedRecord, error) {
	staged := make([]stagedRecord, 0, len(records))
	slot := make(map[string]int, len(records))
	for i, rec := range records {
		data, err := marshalRecord(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: record %d", i)
		}
		if j, ok := slot[rec.Key()]; ok {
			staged[j].rec, staged[j].data = rec, data
			continue
		}
		slot[rec.Key()] = len(staged)
		staged = append(staged, stagedRecord{rec: rec, offset: i, data: data})
	}
	return staged, nil
}

// SaveRecords upserts records via COPY and drops their sessions in one
// transaction. It reports every record in the batch as saved, repeats
// included.
func (s *PostgresStore) SaveRecords(ctx context.Context, records []*model.CustomerRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	staged, err := stageRecords(records)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(staged))
	for i, st := range staged {
		ids[i] = st.rec.Key()
	}

	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM records`).Scan(&next); err != nil {
			return eris.Wrap(err, "postgres: next position")
		}

		now := time.Now().UTC()
		rows := make([][]any, len(staged))
		for i, st := range staged {
			rows[i] = []any{ids[i], next + st.offset, st.rec.Nome, st.rec.Instalacao, st.data, st.data, now}
		}
		if _, err := db.CopyUpsert(ctx, tx, recordUpsert, rows); err != nil {
			return eris.Wrap(err, "postgres: save records")
		}

		_, err := tx.Exec(ctx, `DELETE FROM sessions WHERE record_id = ANY($1)`, ids)
		return eris.Wrap(err, "postgres: drop sessions")
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]*model.CustomerRecord, error) {
	query := `SELECT data FROM records`
	var args []any

	if q := strings.TrimSpace(filter.Search); q != "" {
		args = append(args, "%"+q+"%")
		query += ` WHERE (nome ILIKE $1 OR instalacao ILIKE $1)`
	}
	args = append(args, listLimit(filter), filter.Offset)
	query += fmt.Sprintf(` ORDER BY position LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var out []*model.CustomerRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, eris.Wrap(err, "postgres")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.CustomerRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM records WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return unmarshalRecord(data)
}

func (s *PostgresStore) PutRecord(ctx context.Context, rec *model.CustomerRecord) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return eris.Wrap(err, "postgres")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET nome = $1, instalacao = $2, data = $3, updated_at = $4 WHERE id = $5`,
		rec.Nome, rec.Instalacao, data, time.Now().UTC(), rec.Key(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put record %s", rec.Key())
	}
	if tag.RowsAffected() == 0 {
		return notFound(rec.Key())
	}
	return nil
}

func (s *PostgresStore) RestoreRecord(ctx context.Context, id string) (*model.CustomerRecord, error) {
	var original []byte
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE records SET data = original, updated_at = $1 WHERE id = $2 RETURNING original`,
			time.Now().UTC(), id,
		).Scan(&original)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return eris.Wrapf(err, "postgres: restore record %s", id)
		}
		_, err = tx.Exec(ctx, `DELETE FROM sessions WHERE record_id = $1`, id)
		return eris.Wrapf(err, "postgres: drop session %s", id)
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRecord(original)
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE sessions, records`)
	return eris.Wrap(err, "postgres: delete all")
}

func (s *PostgresStore) GetSession(ctx context.Context, recordID string) (*invoice.ValueSet, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE record_id = $1`, recordID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", recordID)
	}
	vs, err := unmarshalSession(data)
	return vs, eris.Wrap(err, "postgres")
}

func (s *PostgresStore) SaveSession(ctx context.Context, recordID string, vs invoice.ValueSet) error {
	data, err := json.Marshal(vs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal session")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (record_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (record_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		recordID, data, time.Now().UTC(),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return notFound(recordID)
	}
	return eris.Wrapf(err, "postgres: save session %s", recordID)
}

func (s *PostgresStore) DeleteSession(ctx context.Context, recordID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE record_id = $1`, recordID)
	return eris.Wrapf(err, "postgres: delete session %s", recordID)
}
