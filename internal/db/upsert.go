package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertSpec describes a COPY-staged merge into one table.
type UpsertSpec struct {
	Table   string   // target table, optionally schema-qualified
	Columns []string // columns carried by every row, in row order
	Key     []string // columns of the unique constraint

	// Keep lists columns written on insert but left untouched when the key
	// already exists.
	Keep []string
}

func (s UpsertSpec) check() error {
	switch {
	case s.Table == "":
		return eris.New("db: upsert: table required")
	case len(s.Columns) == 0:
		return eris.New("db: upsert: columns required")
	case len(s.Key) == 0:
		return eris.New("db: upsert: key required")
	}
	for _, k := range s.Key {
		if !slices.Contains(s.Columns, k) {
			return eris.Errorf("db: upsert: key column %q not in columns", k)
		}
	}
	return nil
}

// stagingTable names the temp table rows are copied into.
func (s UpsertSpec) stagingTable() string {
	return "_stage_" + strings.ReplaceAll(s.Table, ".", "_")
}

// mergeSQL moves the staged rows into the target table.
func (s UpsertSpec) mergeSQL() string {
	fixed := make(map[string]bool, len(s.Key)+len(s.Keep))
	for _, c := range s.Key {
		fixed[c] = true
	}
	for _, c := range s.Keep {
		fixed[c] = true
	}

	var set []string
	for _, c := range s.Columns {
		if fixed[c] {
			continue
		}
		q := quoteIdent(c)
		set = append(set, q+" = EXCLUDED."+q)
	}
	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}

	cols := joinIdents(s.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		quoteTable(s.Table), cols, cols, quoteIdent(s.stagingTable()), joinIdents(s.Key), action)
}

// CopyUpsert stages rows with COPY into a temp table dropped at commit and
// merges them into spec.Table, all within tx. It returns the rows merged.
func CopyUpsert(ctx context.Context, tx pgx.Tx, spec UpsertSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := spec.check(); err != nil {
		return 0, err
	}

	stage := spec.stagingTable()
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		quoteIdent(stage), quoteTable(spec.Table))
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: stage %s", spec.Table)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, spec.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: copy into %s", stage)
	}
	if copied != int64(len(rows)) {
		return 0, eris.Errorf("db: upsert: staged %d of %d rows", copied, len(rows))
	}

	tag, err := tx.Exec(ctx, spec.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", spec.Table)
	}
	return tag.RowsAffected(), nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteTable quotes "schema.table" as two identifiers.
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return quoteIdent(table)
}

func joinIdents(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}
