// Package migrations embeds the SQL migration files for each supported store
// driver so they can be applied by the goose programmatic API from the CLI,
// server bootstrap, and tests.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect names the goose dialect for a store driver ("postgres" or "sqlite").
func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// FS returns the migration files for driver, rooted so goose sees the .sql
// files at the top level.
func FS(driver string) (fs.FS, error) {
	if _, err := Dialect(driver); err != nil {
		return nil, err
	}
	sub, err := fs.Sub(files, driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: %s: %w", driver, err)
	}
	return sub, nil
}

// NewProvider builds a goose provider for driver over db.
func NewProvider(driver string, db *sql.DB) (*goose.Provider, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	fsys, err := FS(driver)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: create provider: %w", err)
	}
	return provider, nil
}
