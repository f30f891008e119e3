// Package sqlite opens the SQLite databases written by the export step.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, no CGO required
//   - CGO_ENABLED=1 -tags cgo_sqlite: mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the driver matching the build is used.
package sqlite

import (
	"context"
	"database/sql"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// DriverName returns the database/sql driver name for this build.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens (creating if needed) the database at path. The pool is
// limited to one connection since exports write from a single goroutine.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, scmlerrors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, scmlerrors.NewIO("open", path, err)
	}
	return db, nil
}

// OpenReadOnly opens an existing database without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, scmlerrors.NewIO("open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, scmlerrors.NewIO("open", path, err)
	}
	return db, nil
}

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func InTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return scmlerrors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return scmlerrors.Wrap(tx.Commit(), "commit transaction")
}

// Info describes the driver compiled into the binary.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
