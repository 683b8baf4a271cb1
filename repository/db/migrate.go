package db

import (
	stderrors "errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending migration from migratePath against the
// database. A database that is already up to date is not an error.
func Migration(dbStr, migratePath string) error {
	if dbStr == "" {
		return fmt.Errorf("empty database connection string")
	}
	if migratePath == "" {
		return fmt.Errorf("empty migration path")
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		return fmt.Errorf("could not initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}
	return nil
}
