// Package export writes conversion results to a SQLite database.
package export

import (
	"context"
	"database/sql"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/core/sqlite"
)

const schema = `
DROP TABLE IF EXISTS notes;
DROP TABLE IF EXISTS resources;
DROP TABLE IF EXISTS meta;
CREATE TABLE notes (
	start   INTEGER NOT NULL,
	"end"   INTEGER,
	book    TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL
);
CREATE INDEX notes_start ON notes(start);
CREATE TABLE resources (
	seq     INTEGER PRIMARY KEY,
	id      TEXT NOT NULL,
	type    TEXT NOT NULL,
	title   TEXT NOT NULL,
	content TEXT NOT NULL,
	book    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLite replaces the tables in the database at path with the given
// records in a single transaction. A note's "end" column is NULL when the
// note has no end verse.
func SQLite(ctx context.Context, path, runID string, notes []extract.NoteEntry, resources []extract.ResourceEntry) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	err = sqlite.InTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return scmlerrors.Wrap(err, "create schema")
		}
		if err := insertNotes(ctx, tx, notes); err != nil {
			return err
		}
		if err := insertResources(ctx, tx, resources); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('run_id', ?), ('driver', ?)`,
			runID, sqlite.DriverType())
		return scmlerrors.Wrap(err, "insert meta")
	})
	if err != nil {
		return scmlerrors.NewIO("export", path, err)
	}
	return nil
}

func insertNotes(ctx context.Context, tx *sql.Tx, notes []extract.NoteEntry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO notes (start, "end", book, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return scmlerrors.Wrap(err, "prepare notes")
	}
	defer stmt.Close()

	for _, n := range notes {
		end := sql.NullInt64{Int64: int64(n.End), Valid: n.End != 0}
		if _, err := stmt.ExecContext(ctx, n.Start, end, n.Book, n.Content); err != nil {
			return scmlerrors.Wrapf(err, "insert note %d", n.Start)
		}
	}
	return nil
}

func insertResources(ctx context.Context, tx *sql.Tx, resources []extract.ResourceEntry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO resources (id, type, title, content, book) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return scmlerrors.Wrap(err, "prepare resources")
	}
	defer stmt.Close()

	for _, r := range resources {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Type, r.Title, r.Content, r.Book); err != nil {
			return scmlerrors.Wrapf(err, "insert resource %s", r.ID)
		}
	}
	return nil
}

// Counts reports the rows in an exported database.
type Counts struct {
	Notes     int
	Resources int
}

// Count reads back the row counts of a database written by SQLite.
func Count(ctx context.Context, path string) (Counts, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return Counts{}, err
	}
	defer db.Close()

	var c Counts
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&c.Notes); err != nil {
		return Counts{}, scmlerrors.NewIO("count notes in", path, err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&c.Resources); err != nil {
		return Counts{}, scmlerrors.NewIO("count resources in", path, err)
	}
	return c, nil
}
