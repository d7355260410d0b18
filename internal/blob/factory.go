package blob

import (
	"context"
	"fmt"

	fsstore "initiative/internal/infra/blob/fs"
	memstore "initiative/internal/infra/blob/memory"
	s3store "initiative/internal/infra/blob/s3"
)

// S3Config configures the S3 driver.
type S3Config = s3store.Config

// Config selects and configures a blob backend.
type Config struct {
	Driver Driver   // fs|s3|memory (default fs)
	FSRoot string   // directory root when Driver=fs (default ./blobdata)
	S3     S3Config // S3 bucket settings when Driver=s3
}

// Open returns the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
