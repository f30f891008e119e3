// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for builds that want it:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/scml
//
// Without the tag the exporter uses the pure Go modernc.org/sqlite driver
// through github.com/gerdums/study-notes/core/sqlite, which cross-compiles
// and needs no C toolchain. The CGO driver is faster on large notes tables.
package sqliteexternal
