// Package kv re-exports the key-value contract and selects a backend from configuration.
package kv

import (
	"context"
	"fmt"

	"smokecheck/internal/config"
	"smokecheck/internal/infra/kv/fs"
	"smokecheck/internal/infra/kv/memory"
	"smokecheck/internal/infra/kv/postgres"
	"smokecheck/internal/infra/kv/s3"
	"smokecheck/internal/infra/kv/sqlite"
	"smokecheck/internal/kv/core"
)

type (
	// Driver identifies a key-value backend.
	Driver = core.Driver
	// Store is the durable key-value contract.
	Store = core.Store
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverS3         = core.DriverS3
)

// ErrUnsupported indicates an unknown or unavailable driver.
var ErrUnsupported = core.ErrUnsupported

// Open builds the backend named by cfg.Driver (default sqlite).
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverSQLite:
		return sqlite.New(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, driver)
	}
}

// Close releases backend resources when the driver holds any.
func Close(s Store) error {
	if c, ok := s.(core.Closer); ok {
		return c.Close()
	}
	return nil
}
