// Package workspace is the host-side service around the recalculation
// engine: it loads records and editor sessions from the store, runs the
// corrector and persists what comes back. The CLI and the editor API both
// go through it.
package workspace

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/resilience"
	"github.com/sells-group/invoice-cli/internal/store"
)

// Workspace binds a Store to a Corrector.
type Workspace struct {
	store     store.Store
	corrector *invoice.Corrector
	retry     resilience.RetryConfig
}

// View is a record as the editor shows it: the mapped record plus the value
// set behind it.
type View struct {
	Record *model.CustomerRecord `json:"record"`
	Values invoice.ValueSet      `json:"values"`
}

// BulkSummary reports a bulk edit.
type BulkSummary struct {
	Field   invoice.FieldName       `json:"field"`
	Op      invoice.Operation       `json:"op"`
	Amount  float64                 `json:"amount"`
	Updated int                     `json:"updated"`
	Records []*model.CustomerRecord `json:"records"`
}

// New returns a Workspace over st. workers bounds bulk-edit parallelism.
func New(st store.Store, workers int) *Workspace {
	return &Workspace{
		store:     st,
		corrector: invoice.NewCorrector(nil, workers),
		retry:     resilience.DefaultRetryConfig(),
	}
}

// retryConfig returns the write retry policy tagged for logging.
func (w *Workspace) retryConfig(operation string) resilience.RetryConfig {
	cfg := w.retry
	cfg.OnRetry = resilience.RetryLogger(operation)
	return cfg
}

// Store returns the underlying store.
func (w *Workspace) Store() store.Store {
	return w.store
}

// Import saves records, optionally clearing the workspace first.
func (w *Workspace) Import(ctx context.Context, records []*model.CustomerRecord, replace bool) (int, error) {
	if replace {
		if err := w.store.DeleteAll(ctx); err != nil {
			return 0, eris.Wrap(err, "workspace: clear")
		}
	}
	n, err := resilience.DoVal(ctx, w.retryConfig("save_records"), func(ctx context.Context) (int, error) {
		return w.store.SaveRecords(ctx, records)
	})
	if err != nil {
		return 0, eris.Wrap(err, "workspace: import")
	}
	for _, rec := range records {
		w.corrector.Sessions().Delete(rec.Key())
	}
	zap.L().Info("records imported", zap.Int("count", n), zap.Bool("replace", replace))
	return n, nil
}

// List returns records matching filter in import order.
func (w *Workspace) List(ctx context.Context, filter store.RecordFilter) ([]*model.CustomerRecord, error) {
	recs, err := w.store.ListRecords(ctx, filter)
	return recs, eris.Wrap(err, "workspace: list")
}

// Open returns the editor view of a record, resuming its session if any.
func (w *Workspace) Open(ctx context.Context, id string) (*View, error) {
	rec, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	vs := w.corrector.Open(rec)
	return &View{Record: invoice.ToRecord(rec, vs), Values: vs}, nil
}

// Edit applies edits to a record, persisting the new record and session.
// An empty edit list only refreshes the view.
func (w *Workspace) Edit(ctx context.Context, id string, edits []invoice.Edit, resolutions invoice.Resolutions) (*View, error) {
	rec, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := w.corrector.Recalculate(rec, edits, resolutions)
	if err != nil {
		return nil, eris.Wrapf(err, "workspace: edit %s", id)
	}
	if len(edits) == 0 {
		return &View{Record: res.Record, Values: res.Values}, nil
	}

	if err := w.persist(ctx, res.Record, res.Values); err != nil {
		return nil, err
	}

	zap.L().Info("record edited",
		zap.String("id", id),
		zap.Int("edits", len(edits)),
		zap.Float64("total_pagar", res.Record.TotalPagar),
		zap.Float64("economia", res.Record.EconomiaMes),
	)
	return &View{Record: res.Record, Values: res.Values}, nil
}

// Reset restores a record to its imported version and closes its session.
func (w *Workspace) Reset(ctx context.Context, id string) (*View, error) {
	rec, err := w.store.RestoreRecord(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "workspace: reset %s", id)
	}
	w.corrector.Reset(rec)
	zap.L().Info("record reset", zap.String("id", id))

	vs := w.corrector.Open(rec)
	return &View{Record: invoice.ToRecord(rec, vs), Values: vs}, nil
}

// Bulk applies op with amount to field on every record in ids.
func (w *Workspace) Bulk(ctx context.Context, ids []string, field string, op invoice.Operation, amount float64) (*BulkSummary, error) {
	name, err := invoice.ResolveBulkField(field)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, len(ids))
	records := make([]*model.CustomerRecord, 0, len(ids))
	for _, id := range ids {
		if selected[id] {
			continue
		}
		rec, err := w.load(ctx, id)
		if err != nil {
			return nil, err
		}
		selected[rec.Key()] = true
		records = append(records, rec)
	}

	out, err := w.corrector.ApplyBulkAction(records, selected, field, op, amount)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: bulk")
	}

	for _, rec := range out {
		session := w.corrector.Sessions().Get(rec.Key())
		if session == nil {
			return nil, eris.Errorf("workspace: bulk: no session for %s", rec.Key())
		}
		if err := w.persist(ctx, rec, *session); err != nil {
			return nil, err
		}
	}

	zap.L().Info("bulk edit applied",
		zap.String("field", string(name)),
		zap.String("op", string(op)),
		zap.Float64("amount", amount),
		zap.Int("records", len(out)),
	)
	return &BulkSummary{Field: name, Op: op, Amount: amount, Updated: len(out), Records: out}, nil
}

// Export returns every record in import order, with edits applied.
func (w *Workspace) Export(ctx context.Context) ([]*model.CustomerRecord, error) {
	recs, err := w.store.ListRecords(ctx, store.RecordFilter{})
	return recs, eris.Wrap(err, "workspace: export")
}

// load fetches a record and syncs its stored session into the corrector.
func (w *Workspace) load(ctx context.Context, id string) (*model.CustomerRecord, error) {
	rec, err := w.store.GetRecord(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: load")
	}
	session, err := w.store.GetSession(ctx, rec.Key())
	if err != nil {
		return nil, eris.Wrap(err, "workspace: load session")
	}
	if session != nil {
		w.corrector.Sessions().Put(rec.Key(), *session)
	} else {
		w.corrector.Sessions().Delete(rec.Key())
	}
	return rec, nil
}

// persist saves the session, then the record.
func (w *Workspace) persist(ctx context.Context, rec *model.CustomerRecord, vs invoice.ValueSet) error {
	err := resilience.Do(ctx, w.retryConfig("save_session"), func(ctx context.Context) error {
		return w.store.SaveSession(ctx, rec.Key(), vs)
	})
	if err != nil {
		return eris.Wrapf(err, "workspace: save session %s", rec.Key())
	}
	err = resilience.Do(ctx, w.retryConfig("put_record"), func(ctx context.Context) error {
		return w.store.PutRecord(ctx, rec)
	})
	if err != nil {
		return eris.Wrapf(err, "workspace: save record %s", rec.Key())
	}
	return nil
}
