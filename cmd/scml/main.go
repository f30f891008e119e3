// Command scml converts SCML Bible-study exports into JSON notes and
// resources.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/core/ref"
	"github.com/gerdums/study-notes/core/sqlite"
	"github.com/gerdums/study-notes/internal/config"
	"github.com/gerdums/study-notes/internal/convert"
	"github.com/gerdums/study-notes/internal/logging"
	"github.com/gerdums/study-notes/internal/manifest"
	"github.com/gerdums/study-notes/internal/output"
	"github.com/gerdums/study-notes/internal/pipeline"
	"github.com/gerdums/study-notes/internal/search"
	"github.com/gerdums/study-notes/internal/source"
	"github.com/gerdums/study-notes/internal/split"
	"github.com/gerdums/study-notes/internal/translations"
	"github.com/gerdums/study-notes/internal/validation"
)

const version = "0.3.0"

// Globals are flags shared by every command.
type Globals struct {
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"info"`
	LogFormat  string `name:"log-format" help:"Log format (text, json)" enum:"text,json" default:"text"`
	Heuristics string `help:"YAML file overriding the extraction heuristics" type:"path"`

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) heuristics() (*extract.Heuristics, error) {
	return config.LoadHeuristics(g.Heuristics)
}

// CLI defines the command-line interface for scml.
var CLI struct {
	Globals

	Convert      ConvertCmd      `cmd:"" help:"Convert an SCML file into notes.json and resources.json"`
	Notes        NotesCmd        `cmd:"" help:"Extract only the study notes of an SCML file"`
	Translations TranslationsCmd `cmd:"" help:"Convert translations laid out under an inputs directory"`
	Split        SplitCmd        `cmd:"" help:"Split an SCML file into per-book XML files"`
	Ref          RefCmd          `cmd:"" help:"Resolve scripture references"`
	Search       SearchCmd       `cmd:"" help:"Query a search index built by convert"`
	Verify       VerifyCmd       `cmd:"" help:"Check an output directory against its manifest"`
	Version      VersionCmd      `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a whole SCML file.
type ConvertCmd struct {
	Input       string `arg:"" help:"SCML file (.scml, .scml.xz or .scml.gz)" type:"existingfile"`
	OutputDir   string `name:"output-dir" short:"o" help:"Output directory" default:"." type:"path"`
	PerBook     bool   `name:"per-book" help:"Write notes and resources per book into <output-dir>/<Book>/"`
	WithBook    bool   `name:"with-book" help:"Add book and book_id fields to every record"`
	Salvage     bool   `help:"Recover what can be recovered from a malformed file instead of failing"`
	Progress    bool   `help:"Log progress as each book starts" default:"true" negatable:""`
	SQLite      string `name:"sqlite" help:"Also export to this SQLite database" type:"path"`
	Index       string `help:"Also build a full-text search index in this directory" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus textfile metrics to this file" type:"path"`
	NoManifest  bool   `name:"no-manifest" help:"Do not write manifest.json"`
}

func (c *ConvertCmd) Run(g *Globals) error {
	if err := validation.InputPath(c.Input); err != nil {
		return err
	}
	h, err := g.heuristics()
	if err != nil {
		return err
	}

	report, err := convert.Run(context.Background(), convert.Options{
		Input:       c.Input,
		Heuristics:  h,
		Salvage:     c.Salvage,
		Progress:    c.Progress,
		Output:      output.Options{Dir: c.OutputDir, WithBook: c.WithBook, PerBook: c.PerBook},
		SQLite:      c.SQLite,
		Index:       c.Index,
		MetricsFile: c.MetricsFile,
		Manifest:    !c.NoManifest,
		ToolVersion: version,
	})
	if err != nil {
		return err
	}
	printSummary(g.stdout(), report.Result)
	for _, f := range report.Files {
		fmt.Fprintf(g.stdout(), "  wrote %s\n", f)
	}
	return nil
}

// NotesCmd writes only the notes of an SCML file.
type NotesCmd struct {
	Input    string `arg:"" help:"SCML file" type:"existingfile"`
	Out      string `help:"Output file" default:"notes.json" type:"path"`
	WithBook bool   `name:"with-book" help:"Add book and book_id fields to every note"`
	Salvage  bool   `help:"Recover what can be recovered from a malformed file instead of failing"`
}

func (c *NotesCmd) Run(g *Globals) error {
	if err := validation.InputPath(c.Input); err != nil {
		return err
	}
	in, err := source.Open(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := pipeline.Run(context.Background(), in, pipeline.Options{
		Path:      c.Input,
		NotesOnly: true,
		Salvage:   c.Salvage,
	})
	if err != nil {
		return err
	}
	notes := res.Notes
	if !c.WithBook {
		notes = output.StripBooks(notes)
	}
	if err := output.WriteJSON(c.Out, notes); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "%d notes written to %s\n", len(notes), c.Out)
	return nil
}

// TranslationsCmd converts one or all translations under an inputs
// directory.
type TranslationsCmd struct {
	Translation          string `help:"Translation to process (e.g. ESV, LSB, NASB, NKJV)" xor:"which"`
	All                  bool   `help:"Process every translation found in the inputs directory" xor:"which"`
	InputsDir            string `name:"inputs-dir" help:"Directory containing translation subdirectories" default:"./inputs" type:"path"`
	OutputDir            string `name:"output-dir" help:"Directory for output files" default:"./output" type:"path"`
	OnlyReferencedImages bool   `name:"only-referenced-images" help:"Copy only images referenced by resources"`
	StrictImages         bool   `name:"strict-images" help:"Fail if the images directory or a referenced image is missing"`
	WithBook             bool   `name:"with-book" help:"Add book and book_id fields to every record"`
	Progress             bool   `help:"Log progress as each book starts" default:"true" negatable:""`
	NoManifest           bool   `name:"no-manifest" help:"Do not write manifest.json"`
}

func (c *TranslationsCmd) Run(g *Globals) error {
	if c.Translation == "" && !c.All {
		return &scmlerrors.ValidationError{Message: "either --translation or --all is required"}
	}
	h, err := g.heuristics()
	if err != nil {
		return err
	}

	names := []string{c.Translation}
	if c.All {
		if names, err = translations.Discover(c.InputsDir); err != nil {
			return err
		}
	}
	logging.Info("translations_selected", "count", len(names), "names", strings.Join(names, ", "))

	reports, err := translations.ProcessAll(context.Background(), names, translations.Options{
		InputsDir:            c.InputsDir,
		OutputDir:            c.OutputDir,
		OnlyReferencedImages: c.OnlyReferencedImages,
		StrictImages:         c.StrictImages,
		Convert: convert.Options{
			Heuristics:  h,
			Progress:    c.Progress,
			Output:      output.Options{WithBook: c.WithBook},
			Manifest:    !c.NoManifest,
			ToolVersion: version,
		},
	})
	for _, r := range reports {
		fmt.Fprintf(g.stdout(), "%s: %d notes, %d resources, %d images copied", r.Translation, r.Notes, r.Resources, r.ImagesCopied)
		if r.ImagesMissing > 0 {
			fmt.Fprintf(g.stdout(), ", %d missing", r.ImagesMissing)
		}
		fmt.Fprintln(g.stdout())
	}
	fmt.Fprintf(g.stdout(), "Processed %d/%d translation(s) successfully\n", len(reports), len(names))
	return err
}

// SplitCmd splits an SCML file into per-book XML files.
type SplitCmd struct {
	Input  string `arg:"" help:"SCML file" type:"existingfile"`
	OutDir string `arg:"" help:"Directory for the per-book folders" type:"path"`
}

func (c *SplitCmd) Run(g *Globals) error {
	in, err := source.Open(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	written, err := split.Run(context.Background(), in, c.Input, c.OutDir)
	for _, p := range written {
		fmt.Fprintf(g.stdout(), "Written: %s\n", p)
	}
	return err
}

// RefCmd resolves references the way note headers are resolved.
type RefCmd struct {
	Text []string `arg:"" help:"References such as \"Gen 1:1-3\" or \"1 Sam. 3:4\""`
	JSON bool     `help:"Output as JSON"`
}

type refOutput struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
	Book    string `json:"book,omitempty"`
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
	Display string `json:"display"`
	RefAttr string `json:"ref_attr"`
}

func (c *RefCmd) Run(g *Globals) error {
	out := make([]refOutput, 0, len(c.Text))
	for _, text := range c.Text {
		r := ref.Parse(text)
		o := refOutput{Text: text, Matched: r.Matched, Display: r.Display, RefAttr: r.RefAttr}
		if r.Matched {
			o.Book, o.Start, o.End = r.Book.FullName, r.StartID, r.EndID
		}
		out = append(out, o)
	}

	if c.JSON {
		return output.Encode(g.stdout(), out)
	}
	for _, o := range out {
		if !o.Matched {
			fmt.Fprintf(g.stdout(), "%s: not a reference\n", o.Text)
			continue
		}
		fmt.Fprintf(g.stdout(), "%s\n  start:    %d\n", o.Text, o.Start)
		if o.End != 0 {
			fmt.Fprintf(g.stdout(), "  end:      %d\n", o.End)
		}
		fmt.Fprintf(g.stdout(), "  display:  %s\n  ref attr: %s\n", o.Display, o.RefAttr)
	}
	return nil
}

// SearchCmd queries an index.
type SearchCmd struct {
	Index string   `arg:"" help:"Index directory" type:"existingdir"`
	Query []string `arg:"" help:"Bleve query string, e.g. 'creation' or 'kind:resource'"`
	Limit int      `help:"Maximum number of hits" default:"10"`
	JSON  bool     `help:"Output as JSON"`
}

func (c *SearchCmd) Run(g *Globals) error {
	idx, err := search.Open(c.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Search(strings.Join(c.Query, " "), c.Limit)
	if err != nil {
		return err
	}
	if c.JSON {
		return output.Encode(g.stdout(), hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(g.stdout(), "No matches.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(g.stdout(), "%2d. %-28s %.3f  %s\n", i+1, h.ID, h.Score, h.Title)
		if h.Snippet != "" {
			fmt.Fprintf(g.stdout(), "    %s\n", h.Snippet)
		}
	}
	return nil
}

// VerifyCmd checks the hashes recorded in a manifest.
type VerifyCmd struct {
	Dir string `arg:"" help:"Output directory containing manifest.json" type:"existingdir"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	m, err := manifest.Load(filepath.Join(c.Dir, manifest.FileName))
	if err != nil {
		return err
	}
	if err := m.Verify(c.Dir); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "OK: %d files match manifest (run %s)\n", len(m.Files), m.RunID)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *VersionCmd) Run(g *Globals) error {
	info := sqlite.GetInfo()
	if c.JSON {
		return json.NewEncoder(g.stdout()).Encode(map[string]any{
			"version": version,
			"sqlite":  info,
		})
	}
	fmt.Fprintf(g.stdout(), "scml version %s\n", version)
	fmt.Fprintf(g.stdout(), "sqlite driver: %s (%s)\n", info.DriverType, info.Package)
	return nil
}

func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "%d notes, %d resources from %d books", res.Stats.Notes, res.Stats.Resources, res.Stats.Books)
	if res.Stats.Salvaged {
		fmt.Fprint(w, " (salvaged)")
	}
	fmt.Fprintln(w)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scml"),
		kong.Description("Convert SCML Bible-study exports into JSON study notes and resources"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
