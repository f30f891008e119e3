// Package pipeline runs the single streaming pass that turns an SCML
// document into notes and resources.
//
// Elements are dispatched at their end event: <com> to the note extractor,
// <sidebar> to the sidebar extractor and chapters, figures and charts to the
// resource extractor. Each processed subtree is released right away, so a
// <com> inside a chapter never shows up in the chapter's content.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"sort"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/core/ref"
	scmlxml "github.com/gerdums/study-notes/core/xml"
	"github.com/gerdums/study-notes/internal/logging"
)

// Observer is told about every record of a finished run. Records seen
// before a salvage restart are not reported.
type Observer interface {
	NoteAdded()
	ResourceAdded(typ string)
	RecordSkipped(reason string)
}

// Options configures Run.
type Options struct {
	// Path names the input in errors and logs.
	Path string
	// Heuristics defaults to extract.DefaultHeuristics.
	Heuristics *extract.Heuristics
	// NotesOnly skips resource extraction.
	NotesOnly bool
	// Salvage recovers what it can when the document does not parse,
	// instead of failing. It buffers the whole input.
	Salvage bool
	// Progress logs a line as each canonical book starts.
	Progress bool
	// TotalBooks is the expected number of canonical books for progress
	// estimates. Defaults to 66.
	TotalBooks int
	Observer   Observer
}

// Stats summarizes a run.
type Stats struct {
	Books     int
	Notes     int
	Resources int
	Skipped   map[extract.Reason]int
	Salvaged  bool
	Duration  time.Duration
}

// Result is the outcome of Run. Records always carry their book; writers
// drop the fields when they are not wanted.
type Result struct {
	RunID     string
	Notes     []extract.NoteEntry
	Resources []extract.ResourceEntry
	// Images lists the sidebar images behind emitted resources, in
	// discovery order without duplicates.
	Images []string
	Stats  Stats
}

// Run processes r. Notes are returned sorted by start verse and resources
// in discovery order. A document that does not parse fails with
// *errors.ParseError unless opts.Salvage is set.
func Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	if opts.Heuristics == nil {
		opts.Heuristics = extract.DefaultHeuristics()
	}
	if opts.TotalBooks == 0 {
		opts.TotalBooks = 66
	}
	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = logging.WithRunID(ctx, runID)
	}

	var data []byte
	if opts.Salvage {
		var err error
		if data, err = io.ReadAll(r); err != nil {
			return nil, scmlerrors.NewIO("read", opts.Path, err)
		}
		r = bytes.NewReader(data)
	}

	p := newProcessor(ctx, opts)
	err := scmlxml.Stream(r, scmlxml.StreamOptions{Path: opts.Path}, p.handle)
	if err != nil {
		var pe *scmlerrors.ParseError
		if !opts.Salvage || !scmlerrors.As(err, &pe) {
			return nil, err
		}
		logging.WarnContext(ctx, "structural parse failed, salvaging fragments",
			"path", opts.Path, "line", pe.Line, "error", pe.Message)
		p = newProcessor(ctx, opts)
		p.salvage(data)
	}

	res := p.result(runID)
	if opts.Observer != nil {
		notify(opts.Observer, res)
	}
	logging.RunFinished(ctx, res.Stats.Notes, res.Stats.Resources, res.Stats.Duration,
		"books", res.Stats.Books, "salvaged", res.Stats.Salvaged,
		"ref_cache_hits", ref.CacheStats().Hits)
	return res, nil
}

type processor struct {
	ctx   context.Context
	opts  Options
	start time.Time

	book      Book
	divisions []string

	notes     []extract.NoteEntry
	resources []extract.ResourceEntry
	images    []string
	seenImage map[string]bool

	books    int
	skipped  map[extract.Reason]int
	salvaged bool
}

func newProcessor(ctx context.Context, opts Options) *processor {
	return &processor{
		ctx:       ctx,
		opts:      opts,
		start:     time.Now(),
		book:      Book{Name: UnknownBook},
		seenImage: make(map[string]bool),
		skipped:   make(map[extract.Reason]int),
	}
}

func (p *processor) handle(ev scmlxml.Event) error {
	n := ev.Node
	if ev.Kind == scmlxml.StartElement {
		switch n.Data {
		case "book":
			p.enterBook(bookOf(n))
		case "division":
			p.divisions = append(p.divisions, scmlxml.Attr(n, "id"))
		}
		return nil
	}

	switch {
	case n.Data == "division":
		if len(p.divisions) > 0 {
			p.divisions = p.divisions[:len(p.divisions)-1]
		}
	case n.Data == "com":
		p.note(n)
		scmlxml.Release(n)
	case p.opts.NotesOnly:
	case n.Data == "sidebar":
		p.sidebar(n)
		scmlxml.Release(n)
	case p.opts.Heuristics.IsResourceTag(n.Data):
		if p.resource(n) != extract.ReasonNested {
			scmlxml.Release(n)
		}
	}
	return nil
}

func (p *processor) enterBook(b Book) {
	p.book = b
	if !b.Canonical {
		return
	}
	p.books++
	if p.opts.Progress {
		p.logProgress()
	}
}

func (p *processor) division() string {
	if len(p.divisions) == 0 {
		return ""
	}
	return p.divisions[len(p.divisions)-1]
}

func (p *processor) extractContext() extract.Context {
	return extract.Context{Division: p.division(), Heuristics: p.opts.Heuristics}
}

func (p *processor) note(n *xmlquery.Node) {
	note, why := extract.Note(n)
	if why.Skipped() {
		p.skip(n.Data, scmlxml.Attr(n, "id"), why)
		return
	}
	p.addNote(note)
}

func (p *processor) addNote(note extract.NoteEntry) {
	note.Book, note.BookID = p.book.Name, p.book.ID
	p.notes = append(p.notes, note)
}

func (p *processor) sidebar(n *xmlquery.Node) {
	entries, why := extract.Sidebar(n, p.extractContext())
	if why.Skipped() {
		p.skip(n.Data, scmlxml.Attr(n, "id"), why)
		return
	}
	for _, r := range entries {
		p.addResource(r)
	}
}

func (p *processor) resource(n *xmlquery.Node) extract.Reason {
	r, why := extract.Resource(n, p.extractContext())
	if why.Skipped() {
		p.skip(n.Data, scmlxml.Attr(n, "id"), why)
		return why
	}
	p.addResource(r)
	return extract.Kept
}

func (p *processor) addResource(r extract.ResourceEntry) {
	r.Book, r.BookID = p.book.Name, p.book.ID
	p.resources = append(p.resources, r)
	if r.Image != "" && !p.seenImage[r.Image] {
		p.seenImage[r.Image] = true
		p.images = append(p.images, r.Image)
	}
}

func (p *processor) skip(tag, id string, why extract.Reason) {
	p.skipped[why]++
	if why == extract.ReasonBadID && tag == "com" {
		logging.WarnContext(p.ctx, "malformed note id", "id", id, "book", p.book.Name)
	} else {
		logging.RecordSkipped(p.ctx, tag, id, string(why), "book", p.book.Name)
	}
}

func (p *processor) result(runID string) *Result {
	sort.SliceStable(p.notes, func(i, j int) bool {
		return p.notes[i].Start < p.notes[j].Start
	})
	res := &Result{
		RunID:     runID,
		Notes:     p.notes,
		Resources: p.resources,
		Images:    p.images,
		Stats: Stats{
			Books:     p.books,
			Notes:     len(p.notes),
			Resources: len(p.resources),
			Skipped:   p.skipped,
			Salvaged:  p.salvaged,
			Duration:  time.Since(p.start),
		},
	}
	if res.Notes == nil {
		res.Notes = []extract.NoteEntry{}
	}
	if res.Resources == nil {
		res.Resources = []extract.ResourceEntry{}
	}
	return res
}

func notify(o Observer, res *Result) {
	for range res.Notes {
		o.NoteAdded()
	}
	for _, r := range res.Resources {
		o.ResourceAdded(r.Type)
	}
	for why, n := range res.Stats.Skipped {
		for i := 0; i < n; i++ {
			o.RecordSkipped(string(why))
		}
	}
}
