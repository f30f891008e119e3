// Package output writes conversion results as JSON files.
package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/gerdums/study-notes/core/encoding"
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/internal/fileutil"
	"github.com/gerdums/study-notes/internal/pipeline"
)

// File names inside an output directory.
const (
	NotesFile     = "notes.json"
	ResourcesFile = "resources.json"
)

// Options controls how results are laid out on disk.
type Options struct {
	// Dir is the output directory. It is created if needed.
	Dir string
	// WithBook keeps the book and book_id fields on records.
	WithBook bool
	// PerBook writes one notes/resources pair per book into
	// Dir/<book>/ instead of a single pair in Dir.
	PerBook bool
	// NotesOnly skips resources.json.
	NotesOnly bool
}

// WriteJSON writes v to path as 2-space indented JSON. HTML characters and
// non-ASCII text are written as-is.
func WriteJSON(path string, v any) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, v)
	})
}

// Encode writes v to w the way WriteJSON does.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Write writes notes and resources according to opts and returns the paths
// of the files written, in write order.
func Write(notes []extract.NoteEntry, resources []extract.ResourceEntry, opts Options) ([]string, error) {
	if !opts.PerBook {
		if !opts.WithBook {
			notes, resources = StripBooks(notes), stripResourceBooks(resources)
		}
		return writePair(opts.Dir, notes, resources, opts.NotesOnly)
	}

	// Group while the book fields are still set.
	var written []string
	for _, g := range GroupByBook(notes, resources) {
		if !opts.WithBook {
			g.Notes, g.Resources = StripBooks(g.Notes), stripResourceBooks(g.Resources)
		}
		dir := filepath.Join(opts.Dir, encoding.SanitizeName(g.Book))
		paths, err := writePair(dir, g.Notes, g.Resources, opts.NotesOnly)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func writePair(dir string, notes []extract.NoteEntry, resources []extract.ResourceEntry, notesOnly bool) ([]string, error) {
	if notes == nil {
		notes = []extract.NoteEntry{}
	}
	path := filepath.Join(dir, NotesFile)
	if err := WriteJSON(path, notes); err != nil {
		return nil, err
	}
	written := []string{path}
	if notesOnly {
		return written, nil
	}

	if resources == nil {
		resources = []extract.ResourceEntry{}
	}
	path = filepath.Join(dir, ResourcesFile)
	if err := WriteJSON(path, resources); err != nil {
		return written, err
	}
	return append(written, path), nil
}

// BookGroup holds the records of one book.
type BookGroup struct {
	Book      string
	Notes     []extract.NoteEntry
	Resources []extract.ResourceEntry
}

// GroupByBook splits records by their book name. Groups come in order of
// first appearance, notes before resources; record order is kept within
// each group. Records without a book are grouped under pipeline.UnknownBook.
func GroupByBook(notes []extract.NoteEntry, resources []extract.ResourceEntry) []BookGroup {
	var groups []BookGroup
	index := make(map[string]int)
	group := func(book string) *BookGroup {
		if book == "" {
			book = pipeline.UnknownBook
		}
		i, ok := index[book]
		if !ok {
			i = len(groups)
			index[book] = i
			groups = append(groups, BookGroup{Book: book})
		}
		return &groups[i]
	}
	for _, n := range notes {
		g := group(n.Book)
		g.Notes = append(g.Notes, n)
	}
	for _, r := range resources {
		g := group(r.Book)
		g.Resources = append(g.Resources, r)
	}
	return groups
}

// StripBooks returns a copy of notes without book fields.
func StripBooks(notes []extract.NoteEntry) []extract.NoteEntry {
	out := make([]extract.NoteEntry, len(notes))
	for i, n := range notes {
		n.Book, n.BookID = "", ""
		out[i] = n
	}
	return out
}

func stripResourceBooks(resources []extract.ResourceEntry) []extract.ResourceEntry {
	out := make([]extract.ResourceEntry, len(resources))
	for i, r := range resources {
		r.Book, r.BookID = "", ""
		out[i] = r
	}
	return out
}
