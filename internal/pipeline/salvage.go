package pipeline

import (
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/core/scan"
	scmlxml "github.com/gerdums/study-notes/core/xml"
	"github.com/gerdums/study-notes/internal/logging"
)

const reasonUnparseable extract.Reason = "unparseable"

// salvage extracts what it can from a document that failed to parse as a
// whole. Fragments are parsed one by one; <com> fragments that still fail
// fall back to a tag-stripped note.
func (p *processor) salvage(data []byte) {
	p.salvaged = true
	frags := scan.Fragments(data)
	logging.InfoContext(p.ctx, "salvage_scan", "fragments", len(frags))

	var last scan.Book
	for _, f := range frags {
		if f.Book != last {
			last = f.Book
			p.enterBook(ResolveBook(f.Book.ID, f.Book.Semantic))
		}

		n, err := scmlxml.ParseFragment(f.Markup)
		if err != nil {
			if f.Tag == "com" {
				if note, ok := scan.FallbackNote(f.Markup); ok {
					p.addNote(note)
					continue
				}
			}
			p.skip(f.Tag, f.Attrs()["id"], reasonUnparseable)
			continue
		}

		switch {
		case f.Tag == "com":
			p.note(n)
		case p.opts.NotesOnly:
		case f.Tag == "sidebar":
			p.sidebar(n)
		default:
			p.resource(n)
		}
	}
}
