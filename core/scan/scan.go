// Package scan recovers records from SCML that does not parse as a whole.
//
// Fragments finds every <com>, <sidebar>, <sbch> and <sbfig> element by
// pattern, each tagged with the <book> it appears under. Callers parse each
// fragment on its own and run it through the normal extractors; fragments
// that still fail can be turned into a best-effort note with FallbackNote.
package scan

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/gerdums/study-notes/core/encoding"
	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/core/ref"
)

// Tags are the elements the scanner looks for.
var Tags = []string{"com", "sidebar", "sbch", "sbfig"}

var (
	startTag = regexp.MustCompile(`<(` + strings.Join(Tags, "|") + `)\b[^>]*>`)
	bookTag  = regexp.MustCompile(`<book\b[^>]*>`)
	attrPair = regexp.MustCompile(`([A-Za-z_:][-\w.:]*)\s*=\s*"([^"]*)"`)

	noteID  = regexp.MustCompile(`\bid\s*=\s*"com(\d+)[^"]*"`)
	header  = regexp.MustCompile(`(?s)<bcv[^>]*>.*?<xbr\s+t="([^"]+)"[^>]*?(?:/>|>(.*?)</xbr>)`)
	bcvNode = regexp.MustCompile(`(?s)<bcv[^>]*/>|<bcv[^>]*>.*?</bcv>`)
)

// Book is the <book> start tag a fragment appeared under.
type Book struct {
	ID       string
	Semantic string
}

// Fragment is the raw markup of one candidate element.
type Fragment struct {
	Tag    string
	Offset int
	Markup string
	// Complete is false when no closing tag was found and the fragment
	// runs to the next candidate or the end of input.
	Complete bool
	Book     Book
}

// Fragments returns the candidate elements in data in document order.
// Candidates nested inside an earlier fragment are not reported again.
func Fragments(data []byte) []Fragment {
	starts := startTag.FindAllSubmatchIndex(data, -1)
	books := bookTag.FindAllIndex(data, -1)

	var (
		out   []Fragment
		limit int
		bi    int
		book  Book
	)
	for i, m := range starts {
		if m[0] < limit {
			continue
		}
		for bi < len(books) && books[bi][0] < m[0] {
			book = parseBook(data[books[bi][0]:books[bi][1]])
			bi++
		}

		tag := string(data[m[2]:m[3]])
		end, complete := m[1], true
		if data[m[1]-2] != '/' {
			closing := []byte("</" + tag + ">")
			if j := bytes.Index(data[m[1]:], closing); j >= 0 {
				end = m[1] + j + len(closing)
			} else {
				complete = false
				end = len(data)
				if i+1 < len(starts) {
					end = starts[i+1][0]
				}
			}
		}

		out = append(out, Fragment{
			Tag:      tag,
			Offset:   m[0],
			Markup:   string(data[m[0]:end]),
			Complete: complete,
			Book:     book,
		})
		limit = end
	}
	return out
}

// Attrs returns the attributes of the fragment's start tag.
func (f Fragment) Attrs() map[string]string {
	tag := f.Markup
	if i := strings.IndexByte(tag, '>'); i >= 0 {
		tag = tag[:i+1]
	}
	return Attrs(tag)
}

// Attrs returns the name="value" attributes of a start tag.
func Attrs(tag string) map[string]string {
	out := make(map[string]string)
	for _, m := range attrPair.FindAllStringSubmatch(tag, -1) {
		out[m[1]] = m[2]
	}
	return out
}

func parseBook(tag []byte) Book {
	a := Attrs(string(tag))
	return Book{ID: a["id"], Semantic: a["semantic"]}
}

// FallbackNote builds a note from <com> markup that cannot be parsed. The
// header comes from the first <bcv><xbr t="..."> and the body is the rest
// of the markup with tags stripped.
func FallbackNote(markup string) (extract.NoteEntry, bool) {
	m := noteID.FindStringSubmatch(markup)
	if m == nil {
		return extract.NoteEntry{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return extract.NoteEntry{}, false
	}
	note := extract.NoteEntry{Start: start}

	body := markup
	var head string
	if h := header.FindStringSubmatch(markup); h != nil {
		r := ref.Parse(h[1])
		display := encoding.StripTags(h[2])
		if display == "" {
			display = r.Display
		}
		head = "<b><a>" + display + "</a></b>"
		if r.EndID != 0 && r.EndID != start {
			note.End = r.EndID
		}
		if loc := bcvNode.FindStringIndex(markup); loc != nil {
			body = markup[:loc[0]] + " " + markup[loc[1]:]
		}
	}

	note.Content = strings.TrimSpace(head + " " + encoding.StripTags(body))
	if note.Content == "" {
		return extract.NoteEntry{}, false
	}
	return note, true
}
