package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ea-systems/ledger/pkg/cas"
	"github.com/ea-systems/ledger/pkg/config"
	"github.com/ea-systems/ledger/pkg/index"
	"github.com/ea-systems/ledger/pkg/ledger"
	"github.com/ea-systems/ledger/pkg/orchestrator"
	"github.com/ea-systems/ledger/pkg/registry"

	_ "github.com/lib/pq"           // postgres driver, selected via LEDGER_LOG_BACKEND=sql + DATABASE_URL
	_ "modernc.org/sqlite"          // pure-Go sqlite driver, same selection path
)

// coreRuntime bundles the in-process pieces a daemon or a loopback-transport
// client needs: the log, the orchestrator sitting in front of it, and the
// channel registry validating every append.
type coreRuntime struct {
	reg  *registry.ChannelRegistry
	log  *ledger.Log
	orch *orchestrator.Orchestrator
}

// buildCoreRuntime wires storage, CAS, the domain index, and the
// orchestrator per cfg — mirroring the teacher's runServer: the log is kept
// in memory unless cfg.LogBackend is "sql", which selects the SQL-backed
// storage path and then requires DATABASE_URL.
func buildCoreRuntime(ctx context.Context, cfg *config.Config) (*coreRuntime, error) {
	reg, err := registry.LoadFile(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("ledgerd: load registry: %w", err)
	}

	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log := ledger.New(storage)

	store, err := cas.NewStoreFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerd: build CAS store: %w", err)
	}

	idx := index.New()
	orch := orchestrator.New(log, store, idx, reg, cfg.CheckpointEvery)

	return &coreRuntime{reg: reg, log: log, orch: orch}, nil
}

func buildStorage(ctx context.Context, cfg *config.Config) (ledger.Storage, error) {
	if cfg.LogBackend != "sql" {
		return ledger.NewMemoryStorage(), nil
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("ledgerd: LEDGER_LOG_BACKEND=sql requires DATABASE_URL")
	}
	driver := os.Getenv("LEDGER_SQL_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ledgerd: open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ledgerd: ping %s: %w", driver, err)
	}

	storage := ledger.NewSQLStorage(ctx, db)
	if err := storage.Init(); err != nil {
		return nil, fmt.Errorf("ledgerd: init sql storage: %w", err)
	}
	return storage, nil
}
