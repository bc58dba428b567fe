package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecords() []*model.CustomerRecord {
	return []*model.CustomerRecord{
		{ID: "uc-1", Nome: "Padaria Central", Instalacao: "10/1111111-1", DistConsumoQtd: 500, DistConsumoTar: 0.9},
		{ID: "uc-2", Nome: "Mercado Sol", Instalacao: "10/2222222-2", DistConsumoQtd: 320},
		{ID: "uc-3", Nome: "Oficina Norte", Instalacao: "10/3333333-3", DistConsumoQtd: 150},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		got, err := s.ListRecords(ctx, RecordFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "uc-1", got[0].ID)
		assert.Equal(t, "uc-2", got[1].ID)
		assert.Equal(t, "uc-3", got[2].ID)
		assert.InDelta(t, 0.9, got[0].DistConsumoTar, 1e-9)
	})

	t.Run("SaveEmpty", func(t *testing.T) {
		s := newStore(t)
		n, err := s.SaveRecords(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ReimportKeepsPosition", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)

		updated := &model.CustomerRecord{ID: "uc-1", Nome: "Padaria Central Ltda", Instalacao: "10/1111111-1"}
		extra := &model.CustomerRecord{ID: "uc-4", Nome: "Escola Leste", Instalacao: "10/4444444-4"}
		_, err = s.SaveRecords(ctx, []*model.CustomerRecord{extra, updated})
		require.NoError(t, err)

		got, err := s.ListRecords(ctx, RecordFilter{})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "uc-1", got[0].ID)
		assert.Equal(t, "Padaria Central Ltda", got[0].Nome)
		assert.Equal(t, "uc-4", got[3].ID)
	})

	t.Run("RepeatedIDLastWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n, err := s.SaveRecords(ctx, []*model.CustomerRecord{
			{ID: "uc-1", Nome: "Padaria Velha"},
			{ID: "uc-2", Nome: "Mercado Sol"},
			{ID: "uc-1", Nome: "Padaria Central"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		got, err := s.ListRecords(ctx, RecordFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "uc-1", got[0].ID)
		assert.Equal(t, "Padaria Central", got[0].Nome)
		assert.Equal(t, "uc-2", got[1].ID)
	})

	t.Run("ListSearchAndPaging", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)

		got, err := s.ListRecords(ctx, RecordFilter{Search: "mercado"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "uc-2", got[0].ID)

		got, err = s.ListRecords(ctx, RecordFilter{Search: "3333"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "uc-3", got[0].ID)

		got, err = s.ListRecords(ctx, RecordFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "uc-2", got[0].ID)
	})

	t.Run("GetAndPutRecord", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)

		rec, err := s.GetRecord(ctx, "uc-2")
		require.NoError(t, err)
		assert.Equal(t, "Mercado Sol", rec.Nome)

		rec.DistOutros = 12.5
		require.NoError(t, s.PutRecord(ctx, rec))

		got, err := s.GetRecord(ctx, "uc-2")
		require.NoError(t, err)
		assert.InDelta(t, 12.5, got.DistOutros, 1e-9)
	})

	t.Run("RestoreRecord", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)

		rec, err := s.GetRecord(ctx, "uc-1")
		require.NoError(t, err)
		rec.DistConsumoTar = 1.25
		require.NoError(t, s.PutRecord(ctx, rec))
		require.NoError(t, s.SaveSession(ctx, "uc-1", invoice.NewValueSet()))

		restored, err := s.RestoreRecord(ctx, "uc-1")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, restored.DistConsumoTar, 1e-9)

		got, err := s.GetRecord(ctx, "uc-1")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, got.DistConsumoTar, 1e-9)
		vs, err := s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		assert.Nil(t, vs)

		_, err = s.RestoreRecord(ctx, "missing")
		assert.True(t, IsNotFound(err))
	})

	t.Run("ReimportDropsSession", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)
		require.NoError(t, s.SaveSession(ctx, "uc-2", invoice.NewValueSet()))

		_, err = s.SaveRecords(ctx, sampleRecords()[1:2])
		require.NoError(t, err)

		vs, err := s.GetSession(ctx, "uc-2")
		require.NoError(t, err)
		assert.Nil(t, vs)
	})

	t.Run("RecordNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetRecord(ctx, "missing")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		err = s.PutRecord(ctx, &model.CustomerRecord{ID: "missing"})
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("RecordWithoutID", func(t *testing.T) {
		s := newStore(t)
		_, err := s.SaveRecords(context.Background(), []*model.CustomerRecord{{Nome: "Anon"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no id")
	})

	t.Run("SessionLifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)

		vs, err := s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		assert.Nil(t, vs)

		rec, err := s.GetRecord(ctx, "uc-1")
		require.NoError(t, err)
		session := invoice.Extract(rec)
		session.Edited = true
		require.NoError(t, s.SaveSession(ctx, "uc-1", session))

		got, err := s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Edited)
		assert.True(t, got.FixedContribution)
		assert.InDelta(t, 500, got.Get(invoice.FieldConsumption), 1e-9)
		assert.Equal(t, session.ProvenanceOf(invoice.FieldOffsetTariff), got.ProvenanceOf(invoice.FieldOffsetTariff))

		session.Values[invoice.FieldOther] = 7
		require.NoError(t, s.SaveSession(ctx, "uc-1", session))
		got, err = s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		assert.InDelta(t, 7, got.Get(invoice.FieldOther), 1e-9)

		require.NoError(t, s.DeleteSession(ctx, "uc-1"))
		got, err = s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		assert.Nil(t, got)

		// Deleting a missing session is not an error.
		require.NoError(t, s.DeleteSession(ctx, "uc-1"))
	})

	t.Run("SessionForMissingRecord", func(t *testing.T) {
		s := newStore(t)
		err := s.SaveSession(context.Background(), "missing", invoice.NewValueSet())
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("DeleteAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.SaveRecords(ctx, sampleRecords())
		require.NoError(t, err)
		require.NoError(t, s.SaveSession(ctx, "uc-1", invoice.NewValueSet()))

		require.NoError(t, s.DeleteAll(ctx))

		got, err := s.ListRecords(ctx, RecordFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
		vs, err := s.GetSession(ctx, "uc-1")
		require.NoError(t, err)
		assert.Nil(t, vs)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestNewSQLite_BadPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}
