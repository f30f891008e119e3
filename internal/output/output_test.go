package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gerdums/study-notes/core/extract"
)

func sampleRecords() ([]extract.NoteEntry, []extract.ResourceEntry) {
	notes := []extract.NoteEntry{
		{Start: 1001001, End: 1001003, Content: "<b><a>Gen. 1:1–3</a></b> In the beginning", Book: "Genesis", BookID: "bk1"},
		{Start: 2001001, Content: "<b><a>Ex. 1:1</a></b> Names", Book: "Exodus", BookID: "bk2"},
	}
	resources := []extract.ResourceEntry{
		{ID: "intro", Title: "Introduction to Genesis", Content: "<p>Genesis is the book of beginnings.</p>", Type: "introduction", Book: "Genesis", BookID: "bk1"},
	}
	return notes, resources
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	notes := []extract.NoteEntry{{Start: 1001001, Content: "<b>Gen. 1:1–3</b> & more"}}
	if err := Encode(&buf, notes); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := "[\n  {\n    \"start\": 1001001,\n    \"content\": \"<b>Gen. 1:1–3</b> & more\"\n  }\n]\n"
	if got := buf.String(); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestWrite(t *testing.T) {
	notes, resources := sampleRecords()

	t.Run("single pair without book fields", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := Write(notes, resources, Options{Dir: dir})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		want := []string{filepath.Join(dir, NotesFile), filepath.Join(dir, ResourcesFile)}
		if strings.Join(paths, ",") != strings.Join(want, ",") {
			t.Errorf("paths = %v, want %v", paths, want)
		}

		data, _ := os.ReadFile(paths[0])
		if bytes.Contains(data, []byte("book")) {
			t.Errorf("notes.json has book fields:\n%s", data)
		}
		if notes[0].Book != "Genesis" {
			t.Error("Write modified the caller's records")
		}
	})

	t.Run("with book", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := Write(notes, resources, Options{Dir: dir, WithBook: true}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		var got []map[string]any
		readJSON(t, filepath.Join(dir, ResourcesFile), &got)
		if len(got) != 1 || got[0]["book"] != "Genesis" || got[0]["book_id"] != "bk1" {
			t.Errorf("resources = %v", got)
		}
	})

	t.Run("per book", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := Write(notes, resources, Options{Dir: dir, PerBook: true})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if len(paths) != 4 {
			t.Fatalf("wrote %d files, want 4: %v", len(paths), paths)
		}

		var gen []extract.NoteEntry
		readJSON(t, filepath.Join(dir, "Genesis", NotesFile), &gen)
		if len(gen) != 1 || gen[0].Start != 1001001 || gen[0].End != 1001003 {
			t.Errorf("Genesis notes = %+v", gen)
		}
		data, _ := os.ReadFile(filepath.Join(dir, "Genesis", NotesFile))
		if bytes.Contains(data, []byte("book")) {
			t.Errorf("per-book notes.json has book fields:\n%s", data)
		}
		if _, err := os.Stat(filepath.Join(dir, "UnknownBook")); !os.IsNotExist(err) {
			t.Error("records without book fields were grouped under UnknownBook")
		}

		var exRes []extract.ResourceEntry
		readJSON(t, filepath.Join(dir, "Exodus", ResourcesFile), &exRes)
		if exRes == nil || len(exRes) != 0 {
			t.Errorf("Exodus resources = %v, want empty array", exRes)
		}
	})

	t.Run("notes only", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := Write(nil, nil, Options{Dir: dir, NotesOnly: true})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if len(paths) != 1 {
			t.Fatalf("paths = %v", paths)
		}
		data, _ := os.ReadFile(paths[0])
		if string(data) != "[]\n" {
			t.Errorf("notes.json = %q, want empty array", data)
		}
		if _, err := os.Stat(filepath.Join(dir, ResourcesFile)); !os.IsNotExist(err) {
			t.Error("resources.json written in notes-only mode")
		}
	})
}

func TestGroupByBook(t *testing.T) {
	notes := []extract.NoteEntry{
		{Start: 1, Book: "Genesis"},
		{Start: 2},
		{Start: 3, Book: "Genesis"},
	}
	resources := []extract.ResourceEntry{
		{ID: "a", Book: "Exodus"},
		{ID: "b", Book: "Genesis"},
	}

	groups := GroupByBook(notes, resources)
	var books []string
	for _, g := range groups {
		books = append(books, g.Book)
	}
	if got, want := strings.Join(books, ","), "Genesis,UnknownBook,Exodus"; got != want {
		t.Errorf("books = %s, want %s", got, want)
	}
	if len(groups[0].Notes) != 2 || groups[0].Notes[1].Start != 3 || len(groups[0].Resources) != 1 {
		t.Errorf("Genesis group = %+v", groups[0])
	}
}
