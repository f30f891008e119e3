// Package split separates an SCML document into per-book XML files: the
// Bible text chapters, the study-notes chapters and everything else.
package split

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/gerdums/study-notes/core/encoding"
	scmlxml "github.com/gerdums/study-notes/core/xml"
	"github.com/gerdums/study-notes/internal/fileutil"
	"github.com/gerdums/study-notes/internal/logging"
	"github.com/gerdums/study-notes/internal/pipeline"
)

// Category is where a chapter goes.
type Category int

const (
	Other Category = iota
	BibleText
	StudyNotes
)

// Output files and their root tag suffixes, by category.
var files = []struct {
	category Category
	name     string
	suffix   string
}{
	{BibleText, "bible_text.xml", "_BibleText"},
	{StudyNotes, "study_notes.xml", "_StudyNotes"},
	{Other, "other_resources.xml", "_OtherResources"},
}

var comparisonName = regexp.MustCompile(`^[1-3]?\s*[A-Za-z]+(?: [A-Za-z]+)*`)

// ComparisonName reduces a book label to the name chapters are matched
// against: "Study Notes and Features for 1 Samuel" and "1 Samuel 10" both
// become "1 Samuel".
func ComparisonName(label string) string {
	name := encoding.TrimMatterPrefix(strings.TrimSpace(label))
	if m := comparisonName.FindString(name); m != "" {
		return strings.TrimSpace(m)
	}
	if name == "" {
		return pipeline.UnknownBook
	}
	return name
}

// FolderName picks the label of a <book>: its semantic attribute, else the
// text of its <bk> child, else its id.
func FolderName(book *xmlquery.Node) string {
	if s := scmlxml.Attr(book, "semantic"); s != "" {
		return s
	}
	if bk := scmlxml.FirstChild(book, "bk"); bk != nil {
		if text := strings.TrimSpace(scmlxml.LeadingText(bk)); text != "" {
			return text
		}
	}
	if id := scmlxml.Attr(book, "id"); id != "" {
		return id
	}
	return pipeline.UnknownBook
}

// Classify decides where a chapter of the book named compare belongs.
func Classify(chapter *xmlquery.Node, compare string) Category {
	id := strings.ToLower(scmlxml.Attr(chapter, "id"))
	semantic := scmlxml.Attr(chapter, "semantic")
	lower := strings.ToLower(semantic)

	switch {
	case strings.HasPrefix(lower, "study notes and features for") &&
		strings.Contains(lower, strings.ToLower(compare)):
		return StudyNotes
	case strings.HasPrefix(id, "ch") && bibleChapter(compare).MatchString(semantic):
		return BibleText
	}
	return Other
}

func bibleChapter(compare string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(compare) + `\s+\d+$`)
}

// Book is one <book> sorted into categories.
type Book struct {
	Label      string
	Folder     string
	Comparison string
	Parts      map[Category][]*xmlquery.Node
}

// Sort classifies the children of a <book>. Non-chapter children go to
// Other ahead of any chapters.
func Sort(book *xmlquery.Node) Book {
	label := FolderName(book)
	b := Book{
		Label:      label,
		Folder:     encoding.SanitizeName(label),
		Comparison: ComparisonName(label),
		Parts:      make(map[Category][]*xmlquery.Node),
	}

	var chapters []*xmlquery.Node
	for _, child := range scmlxml.Elements(book) {
		if strings.EqualFold(child.Data, "chapter") {
			chapters = append(chapters, child)
			continue
		}
		b.Parts[Other] = append(b.Parts[Other], child)
	}
	for _, ch := range chapters {
		c := Classify(ch, b.Comparison)
		b.Parts[c] = append(b.Parts[c], ch)
	}
	return b
}

// Write stores the categories of b under dir/<folder>/ and returns the paths
// written. Empty categories produce no file.
func Write(dir string, b Book) ([]string, error) {
	var written []string
	for _, f := range files {
		nodes := b.Parts[f.category]
		if len(nodes) == 0 {
			continue
		}
		path := filepath.Join(dir, b.Folder, f.name)
		err := fileutil.WriteAtomic(path, func(w io.Writer) error {
			return scmlxml.Format(w, b.Folder+f.suffix, nodes, scmlxml.FormatOptions{
				Indent:      "  ",
				Declaration: true,
			})
		})
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Run streams the document in r and writes each <book> as it completes.
// It returns every path written.
func Run(ctx context.Context, r io.Reader, path, outDir string) ([]string, error) {
	var (
		written []string
		books   int
	)
	err := scmlxml.Stream(r, scmlxml.StreamOptions{Path: path}, func(ev scmlxml.Event) error {
		if ev.Kind != scmlxml.EndElement || ev.Node.Data != "book" {
			return nil
		}
		books++
		b := Sort(ev.Node)
		logging.InfoContext(ctx, "split_book", "book", b.Label, "comparison_name", b.Comparison, "folder", b.Folder)

		paths, err := Write(outDir, b)
		written = append(written, paths...)
		if err != nil {
			return err
		}
		for _, p := range paths {
			logging.DebugContext(ctx, "file_written", "path", p)
		}
		scmlxml.Release(ev.Node)
		return nil
	})
	if err != nil {
		return written, err
	}
	if books == 0 {
		logging.WarnContext(ctx, "no book elements found", "path", path)
	}
	return written, nil
}
