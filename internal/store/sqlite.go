package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	nome       TEXT NOT NULL DEFAULT '',
	instalacao TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL,
	original   TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sessions (
	record_id  TEXT PRIMARY KEY REFERENCES records(id) ON DELETE CASCADE,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_position ON records(position);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords upserts records in one transaction. New records are appended
// after the existing ones; re-imported records keep their position.
func (s *SQLiteStore) SaveRecords(ctx context.Context, records []*model.CustomerRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM records`).Scan(&next); err != nil {
		return 0, eris.Wrap(err, "sqlite: next position")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, position, nome, instalacao, data, original, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET nome = excluded.nome, instalacao = excluded.instalacao,
		 data = excluded.data, original = excluded.original, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for i, rec := range records {
		data, err := marshalRecord(rec)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: record %d", i)
		}
		if _, err := stmt.ExecContext(ctx, rec.Key(), next+i, rec.Nome, rec.Instalacao, string(data), string(data), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert record %s", rec.Key())
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE record_id = ?`, rec.Key()); err != nil {
			return 0, eris.Wrapf(err, "sqlite: drop session %s", rec.Key())
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return len(records), nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]*model.CustomerRecord, error) {
	query := `SELECT data FROM records WHERE 1=1`
	var args []any

	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		query += ` AND (LOWER(nome) LIKE ? OR LOWER(instalacao) LIKE ?)`
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY position LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var out []*model.CustomerRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, err := unmarshalRecord([]byte(data))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.CustomerRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return unmarshalRecord([]byte(data))
}

func (s *SQLiteStore) PutRecord(ctx context.Context, rec *model.CustomerRecord) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET nome = ?, instalacao = ?, data = ?, updated_at = ? WHERE id = ?`,
		rec.Nome, rec.Instalacao, string(data), time.Now().UTC(), rec.Key(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put record %s", rec.Key())
	}
	return checkRowsAffected(res, rec.Key())
}

func (s *SQLiteStore) RestoreRecord(ctx context.Context, id string) (*model.CustomerRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var original string
	err = tx.QueryRowContext(ctx, `SELECT original FROM records WHERE id = ?`, id).Scan(&original)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get original %s", id)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET data = original, updated_at = ? WHERE id = ?`, time.Now().UTC(), id,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: restore record %s", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE record_id = ?`, id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: drop session %s", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return unmarshalRecord([]byte(original))
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return eris.Wrap(err, "sqlite: delete sessions")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM records`)
	return eris.Wrap(err, "sqlite: delete records")
}

func (s *SQLiteStore) GetSession(ctx context.Context, recordID string) (*invoice.ValueSet, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE record_id = ?`, recordID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", recordID)
	}
	vs, err := unmarshalSession([]byte(data))
	return vs, eris.Wrap(err, "sqlite")
}

func (s *SQLiteStore) SaveSession(ctx context.Context, recordID string, vs invoice.ValueSet) error {
	data, err := json.Marshal(vs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (record_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (record_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		recordID, string(data), time.Now().UTC(),
	)
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return notFound(recordID)
	}
	return eris.Wrapf(err, "sqlite: save session %s", recordID)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, recordID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE record_id = ?`, recordID)
	return eris.Wrapf(err, "sqlite: delete session %s", recordID)
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}
