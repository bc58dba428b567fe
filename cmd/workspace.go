package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/ingest"
	"github.com/sells-group/invoice-cli/internal/store"
	"github.com/sells-group/invoice-cli/internal/workspace"
)

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// openWorkspace validates config and returns a workspace plus its closer.
func openWorkspace(ctx context.Context, mode string) (*workspace.Workspace, func(), error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = st.Close() }
	return workspace.New(st, cfg.Bulk.Workers), closeFn, nil
}

func xlsxOptions() ingest.XLSXOptions {
	return ingest.XLSXOptions{
		SheetName: cfg.Ingest.SheetName,
		HeaderRow: cfg.Ingest.HeaderRow,
		Workers:   cfg.Bulk.Workers,
	}
}
