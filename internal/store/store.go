// Package store persists the operator's working set: the imported customer
// records and the editor session attached to each edited record.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/model"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = eris.New("not found")

// RecordFilter specifies criteria for listing records.
type RecordFilter struct {
	Search string `json:"search,omitempty"` // matches name or installation, case-insensitive
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the corrector workspace.
// Records keep their import order. Each record also keeps the version it was
// imported with; RestoreRecord reverts to it and drops the session.
// Re-importing a record replaces both versions and drops its session.
type Store interface {
	// Records
	SaveRecords(ctx context.Context, records []*model.CustomerRecord) (int, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]*model.CustomerRecord, error)
	GetRecord(ctx context.Context, id string) (*model.CustomerRecord, error)
	PutRecord(ctx context.Context, rec *model.CustomerRecord) error
	RestoreRecord(ctx context.Context, id string) (*model.CustomerRecord, error)
	DeleteAll(ctx context.Context) error

	// Editor sessions. GetSession returns nil, nil when the record has none.
	GetSession(ctx context.Context, recordID string) (*invoice.ValueSet, error)
	SaveSession(ctx context.Context, recordID string, vs invoice.ValueSet) error
	DeleteSession(ctx context.Context, recordID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

func notFound(id string) error {
	return eris.Wrapf(ErrNotFound, "record %s", id)
}

func marshalRecord(rec *model.CustomerRecord) ([]byte, error) {
	if rec.Key() == "" {
		return nil, eris.New("record has no id")
	}
	b, err := json.Marshal(rec)
	return b, eris.Wrap(err, "marshal record")
}

func unmarshalRecord(data []byte) (*model.CustomerRecord, error) {
	var rec model.CustomerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "unmarshal record")
	}
	return &rec, nil
}

func unmarshalSession(data []byte) (*invoice.ValueSet, error) {
	vs := invoice.NewValueSet()
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, eris.Wrap(err, "unmarshal session")
	}
	return &vs, nil
}

func listLimit(filter RecordFilter) int {
	if filter.Limit <= 0 {
		return 10000
	}
	return filter.Limit
}
