package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/gerdums/study-notes/internal/validation"
)

const document = `<?xml version="1.0" encoding="utf-8"?>
<book id="bk01" semantic="Genesis">
  <com id="com01001001"><bcv><xbr t="Gen 1:1-3"/></bcv> In the beginning...</com>
  <chapter id="intro01" semantic="Introduction to Genesis"><ctfm>Introduction to Genesis</ctfm><p>Genesis tells of the creation of the world and the calling of the patriarchs.</p></chapter>
</book>
<book id="bk02" semantic="Exodus">
  <com id="com02001001"><bcv><xbr t="Ex 1:1"/></bcv> These are the names.</com>
</book>
`

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func testGlobals() (*Globals, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Globals{Stdout: &buf}, &buf
}

func TestConvertCmd_Run(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "ESV.scml", document)
	outDir := filepath.Join(dir, "out")
	g, buf := testGlobals()

	cmd := &ConvertCmd{
		Input:     input,
		OutputDir: outDir,
		PerBook:   true,
		WithBook:  true,
		Index:     filepath.Join(dir, "index"),
	}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(buf.String(), "2 notes, 1 resources from 2 books") {
		t.Errorf("summary missing:\n%s", buf.String())
	}

	var notes []map[string]any
	data, err := os.ReadFile(filepath.Join(outDir, "Exodus", "notes.json"))
	if err != nil {
		t.Fatalf("per-book notes not written: %v", err)
	}
	if err := json.Unmarshal(data, &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0]["book"] != "Exodus" || notes[0]["book_id"] != "bk02" {
		t.Errorf("Exodus notes = %v", notes)
	}

	// The manifest covers every per-book file.
	vg, vbuf := testGlobals()
	if err := (&VerifyCmd{Dir: outDir}).Run(vg); err != nil {
		t.Fatalf("VerifyCmd.Run() error = %v", err)
	}
	if !strings.Contains(vbuf.String(), "OK: 4 files") {
		t.Errorf("verify output = %q", vbuf.String())
	}

	sg, sbuf := testGlobals()
	if err := (&SearchCmd{Index: filepath.Join(dir, "index"), Query: []string{"patriarchs"}, Limit: 5}).Run(sg); err != nil {
		t.Fatalf("SearchCmd.Run() error = %v", err)
	}
	if !strings.Contains(sbuf.String(), "resource:intro01") {
		t.Errorf("search output = %q", sbuf.String())
	}
}

func TestConvertCmd_PerBookWithoutBookFields(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "ESV.scml", document)
	outDir := filepath.Join(dir, "out")
	g, _ := testGlobals()

	if err := (&ConvertCmd{Input: input, OutputDir: outDir, PerBook: true, NoManifest: true}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, book := range []string{"Genesis", "Exodus"} {
		data, err := os.ReadFile(filepath.Join(outDir, book, "notes.json"))
		if err != nil {
			t.Fatalf("%s notes not written: %v", book, err)
		}
		var notes []map[string]any
		if err := json.Unmarshal(data, &notes); err != nil {
			t.Fatal(err)
		}
		if len(notes) != 1 {
			t.Errorf("%s notes = %v, want 1", book, notes)
		}
		if _, ok := notes[0]["book"]; ok {
			t.Errorf("%s notes carry book fields: %v", book, notes)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "UnknownBook")); !os.IsNotExist(err) {
		t.Error("UnknownBook folder written")
	}
}

func TestConvertCmd_Malformed(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "bad.scml", `<book id="bk01"><com id="com01001001"><bcv><xbr t="Gen 1:1"/></bcv> ok</com><p></book>`)
	g, _ := testGlobals()

	cmd := &ConvertCmd{Input: input, OutputDir: filepath.Join(dir, "out")}
	if err := cmd.Run(g); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "notes.json")); !os.IsNotExist(err) {
		t.Error("notes.json written for a malformed document")
	}

	cmd.Salvage = true
	if err := cmd.Run(g); err != nil {
		t.Fatalf("salvage Run() error = %v", err)
	}
}

func TestNotesCmd_InvalidInput(t *testing.T) {
	g, _ := testGlobals()
	err := (&NotesCmd{Input: "", Out: filepath.Join(t.TempDir(), "notes.json")}).Run(g)
	if !errors.Is(err, validation.ErrEmptyPath) {
		t.Errorf("Run() error = %v, want ErrEmptyPath", err)
	}
}

func TestNotesCmd_Run(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "ESV.scml", document)
	out := filepath.Join(dir, "notes.json")
	g, buf := testGlobals()

	if err := (&NotesCmd{Input: input, Out: out}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "start": 1001001,
    "end": 1001003,
    "content": "<b><a>Gen. 1:1–3</a></b> In the beginning..."
  },
  {
    "start": 2001001,
    "content": "<b><a>Ex. 1:1</a></b> These are the names."
  }
]
`
	if string(data) != want {
		t.Errorf("notes.json =\n%s\nwant\n%s", data, want)
	}
	if !strings.Contains(buf.String(), "2 notes written") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTranslationsCmd_Run(t *testing.T) {
	dir := t.TempDir()
	inputs := filepath.Join(dir, "inputs")
	createTestFile(t, inputs, filepath.Join("ESV", "ESV.scml"), document)
	createTestFile(t, inputs, filepath.Join("ESV", "ESV_images", "map.jpg"), "\xff\xd8\xff")

	t.Run("requires selection", func(t *testing.T) {
		g, _ := testGlobals()
		if err := (&TranslationsCmd{InputsDir: inputs}).Run(g); err == nil {
			t.Error("expected error without --translation or --all")
		}
	})

	t.Run("all", func(t *testing.T) {
		g, buf := testGlobals()
		cmd := &TranslationsCmd{All: true, InputsDir: inputs, OutputDir: filepath.Join(dir, "output")}
		if err := cmd.Run(g); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !strings.Contains(buf.String(), "ESV: 2 notes, 1 resources, 1 images copied") ||
			!strings.Contains(buf.String(), "Processed 1/1") {
			t.Errorf("output = %q", buf.String())
		}
		if _, err := os.Stat(filepath.Join(dir, "output", "ESV", "images", "map.jpg")); err != nil {
			t.Errorf("image not copied: %v", err)
		}
	})

	t.Run("missing translation", func(t *testing.T) {
		g, _ := testGlobals()
		cmd := &TranslationsCmd{Translation: "NIV", InputsDir: inputs, OutputDir: filepath.Join(dir, "output")}
		if err := cmd.Run(g); err == nil {
			t.Error("expected error for missing translation")
		}
	})
}

func TestSplitCmd_Run(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "ESV.scml", document)
	g, buf := testGlobals()

	if err := (&SplitCmd{Input: input, OutDir: filepath.Join(dir, "split")}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "split", "Genesis", "other_resources.xml")); err != nil {
		t.Errorf("other_resources.xml not written: %v", err)
	}
	if !strings.Contains(buf.String(), "Written: ") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRefCmd_Run(t *testing.T) {
	g, buf := testGlobals()
	if err := (&RefCmd{Text: []string{"Gen 1:1-3", "hello"}}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"start:    1001001", "end:      1001003", "display:  Gen. 1:1–3", "ref attr: Genesis 1:1–3", "hello: not a reference"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	g, buf = testGlobals()
	if err := (&RefCmd{Text: []string{"Ex 2:3"}, JSON: true}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var got []refOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Start != 2002003 || got[0].Book != "Exodus" {
		t.Errorf("JSON output = %+v", got)
	}
}

func TestVersionCmd_Run(t *testing.T) {
	g, buf := testGlobals()
	if err := (&VersionCmd{}).Run(g); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "scml version "+version) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestVerifyCmd_Missing(t *testing.T) {
	g, _ := testGlobals()
	if err := (&VerifyCmd{Dir: t.TempDir()}).Run(g); err == nil {
		t.Error("expected error without manifest")
	}
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "ESV.scml", document)

	cli := CLI
	parser, err := kong.New(&cli, kong.Name("scml"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	ctx, err := parser.Parse([]string{"--log-format", "json", "convert", input, "--per-book", "--no-progress", "-o", dir})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ctx.Command() != "convert <input>" {
		t.Errorf("Command() = %q", ctx.Command())
	}
	if cli.LogFormat != "json" || cli.LogLevel != "info" {
		t.Errorf("globals = %+v", cli.Globals)
	}
	if !cli.Convert.PerBook || cli.Convert.Progress || cli.Convert.OutputDir != dir {
		t.Errorf("convert flags = %+v", cli.Convert)
	}

	if _, err := parser.Parse([]string{"translations", "--translation", "ESV", "--all"}); err == nil {
		t.Error("expected error for --translation with --all")
	}
}
