package core

import (
	"context"
	"fmt"
	"log/slog"

	"initiative/internal/blob"
	"initiative/internal/config"
	badgerstore "initiative/internal/infra/persistence/badger"
	blobstore "initiative/internal/infra/persistence/blob"
	"initiative/internal/infra/persistence/memory"
	"initiative/internal/infra/persistence/null"
	"initiative/internal/infra/persistence/postgres"
	"initiative/internal/infra/persistence/sqlite"
	"initiative/pkg/domain"
)

// CloseFunc releases resources held by a data store.
type CloseFunc func() error

func noClose() error { return nil }

// OpenDataStore selects a backend from cfg. Defaults to sqlite when the
// driver is unset. logger, when non-nil, receives badger's internal logs.
func OpenDataStore(ctx context.Context, cfg config.Storage, logger *slog.Logger) (domain.DataStore, CloseFunc, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	switch driver {
	case config.DriverMemory:
		return memory.NewStore(), noClose, nil
	case config.DriverNull:
		return null.NewStore(), noClose, nil
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverBadger:
		bcfg := badgerstore.DefaultConfig(cfg.Badger.Path)
		if cfg.Badger.InMemory {
			bcfg = badgerstore.InMemoryConfig()
		}
		bcfg.SyncWrites = bcfg.SyncWrites && cfg.Badger.SyncWrites
		bcfg.Logger = logger
		store, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverBlob:
		objects, err := blob.Open(ctx, blob.Config{
			Driver: blob.Driver(cfg.Blob.Driver),
			FSRoot: cfg.Blob.FSRoot,
			S3: blob.S3Config{
				Bucket:          cfg.Blob.S3.Bucket,
				Region:          cfg.Blob.S3.Region,
				Prefix:          cfg.Blob.S3.Prefix,
				Endpoint:        cfg.Blob.S3.Endpoint,
				AccessKeyID:     cfg.Blob.S3.AccessKeyID,
				SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
				PathStyle:       cfg.Blob.S3.PathStyle,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		return blobstore.NewStore(objects), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
