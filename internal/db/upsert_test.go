package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

var recordsSpec = UpsertSpec{
	Table:   "records",
	Columns: []string{"id", "position", "data"},
	Key:     []string{"id"},
	Keep:    []string{"position"},
}

func TestUpsertSpec_Check(t *testing.T) {
	tests := []struct {
		name string
		spec UpsertSpec
		want string
	}{
		{"no table", UpsertSpec{Columns: []string{"id"}, Key: []string{"id"}}, "table required"},
		{"no columns", UpsertSpec{Table: "records", Key: []string{"id"}}, "columns required"},
		{"no key", UpsertSpec{Table: "records", Columns: []string{"id"}}, "key required"},
		{"key outside columns", UpsertSpec{Table: "records", Columns: []string{"data"}, Key: []string{"id"}}, `key column "id"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.check()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, recordsSpec.check())
}

func TestUpsertSpec_MergeSQL(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "records" ("id", "position", "data") SELECT "id", "position", "data" FROM "_stage_records" ON CONFLICT ("id") DO UPDATE SET "data" = EXCLUDED."data"`,
		recordsSpec.mergeSQL())

	keyOnly := UpsertSpec{Table: "invoice.tags", Columns: []string{"id"}, Key: []string{"id"}}
	assert.Equal(t,
		`INSERT INTO "invoice"."tags" ("id") SELECT "id" FROM "_stage_invoice_tags" ON CONFLICT ("id") DO NOTHING`,
		keyOnly.mergeSQL())
}

func TestCopyUpsert_EmptyRows(t *testing.T) {
	n, err := CopyUpsert(context.Background(), nil, recordsSpec, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyUpsert_InTx(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_records" \(LIKE "records" INCLUDING DEFAULTS\) ON COMMIT DROP`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_records"}, recordsSpec.Columns).WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("id"\) DO UPDATE SET "data" = EXCLUDED."data"$`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	var n int64
	err := WithTx(context.Background(), mock, func(tx pgx.Tx) error {
		var err error
		n, err = CopyUpsert(context.Background(), tx, recordsSpec, [][]any{{"a", 0, "{}"}, {"b", 1, "{}"}})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyUpsert_ShortCopyRollsBack(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_records"}, recordsSpec.Columns).WillReturnResult(1)
	mock.ExpectRollback()

	err := WithTx(context.Background(), mock, func(tx pgx.Tx) error {
		_, err := CopyUpsert(context.Background(), tx, recordsSpec, [][]any{{"a", 0, "{}"}, {"b", 1, "{}"}})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staged 1 of 2 rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin().WillReturnError(errors.New("db error"))

	err := WithTx(context.Background(), mock, func(pgx.Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestWithTx_FnErrorPassesThrough(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err := WithTx(context.Background(), mock, func(pgx.Tx) error { return sentinel })
	assert.Same(t, sentinel, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"records"`, quoteTable("records"))
	assert.Equal(t, `"invoice"."records"`, quoteTable("invoice.records"))
}
