package store

import (
	"context"
	"fmt"
)

// Driver names a persistence backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
)

// Open constructs the backend named by driver. path is the database file for
// sqlite, the directory for file, and the DSN for postgres.
func Open(ctx context.Context, driver Driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(path)
	case DriverFile:
		return NewFile(path)
	case DriverPostgres:
		return NewPostgres(ctx, path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
