package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type Config struct {
	Driver     string
	Postgres   PostgresConfig
	SQLitePath string
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		store, err = OpenPostgres(ctx, cfg.Postgres)
	case DriverSQLite:
		store, err = OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if _, _, err := RunMigrations(store); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}
