// Package ref resolves textual Bible references such as "Gen 1:1–2:3" into
// verse IDs and the two display forms used in study-note markup.
//
// A verse ID is the integer formed by the two-digit book number, the
// three-digit chapter and the three-digit verse: Gen 1:1 is 1001001.
// Text that does not start with a reference is never an error; the caller
// gets it back unchanged as an opaque label.
package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/gerdums/study-notes/core/books"
	"github.com/gerdums/study-notes/core/cache"
	"github.com/gerdums/study-notes/internal/logging"
)

// RangeDash separates the start and end of a rendered range.
const RangeDash = "–"

// refGrammar matches the prefix of a reference string.
// Examples: "Gen 1:1", "1Sam 2:3", "2 Cor 5:17", "Gen 1:1-2:3", "Ps 23:1–6"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Prefix  string    `@Int?`
	Space   string    `@Whitespace?`
	Book    string    `@Ident "."? Whitespace?`
	Chapter string    `@Int ":"`
	Verse   string    `@Int`
	End     *rangeEnd `( Dash @@ )?`
}

// rangeEnd is either "V" (same chapter) or "C:V" (cross chapter).
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeEnd struct {
	First  string  `@Int`
	Second *string `( ":" @Int )?`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s\x{00A0}]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Dash", Pattern: `[-–]`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Other", Pattern: `.`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.UseLookahead(2),
)

// Verse is one endpoint of a reference as written in the source text.
type Verse struct {
	Book    string // book token as found, e.g. "1Sam"
	Chapter string
	Verse   string
}

// Result is the outcome of Parse.
type Result struct {
	// Matched is false when the text did not start with a reference.
	Matched bool

	Start Verse
	End   *Verse

	// CrossChapter is true when the end named its own chapter.
	CrossChapter bool

	Book books.Details

	StartID int
	// EndID is 0 when the reference is not a range.
	EndID int

	// Display uses abbreviated book names ("Gen. 1:1–3"). For unmatched
	// text it is the original text.
	Display string
	// RefAttr uses full book names ("Genesis 1:1–3"). For unmatched text it
	// is the original text.
	RefAttr string
}

// HasEnd reports whether the reference is a range.
func (r Result) HasEnd() bool {
	return r.End != nil
}

// parsed memoizes Parse. A study Bible repeats the same references in
// note headers and cross-reference links many times over.
var parsed = cache.New[string, Result](8192)

// Parse resolves the reference at the start of text. Trailing text after a
// complete reference is ignored.
func Parse(text string) Result {
	if r, ok := parsed.Get(text); ok {
		if r.End != nil {
			end := *r.End
			r.End = &end
		}
		return r
	}
	r := parse(text)
	parsed.Put(text, r)
	return r
}

// CacheStats reports how often Parse was answered from its cache.
func CacheStats() cache.Stats {
	return parsed.Stats()
}

func parse(text string) Result {
	unmatched := Result{Display: text, RefAttr: text}
	s := strings.TrimSpace(text)
	if s == "" {
		return unmatched
	}

	g, err := refParser.ParseString("", s, participle.AllowTrailing(true))
	if err != nil {
		return unmatched
	}
	if !validPrefix(g.Prefix) || (g.Space != "" && (g.Prefix == "" || !singleSpace(g.Space))) {
		return unmatched
	}

	space := ""
	if g.Space != "" {
		space = " "
	}
	token := g.Prefix + space + g.Book
	details := resolveBook(token, g.Prefix+g.Book)

	res := Result{
		Matched: true,
		Start:   Verse{Book: token, Chapter: g.Chapter, Verse: g.Verse},
		Book:    details,
	}
	res.StartID = verseID(details, token, g.Chapter, g.Verse)

	c2, v2 := "", ""
	if g.End != nil {
		if g.End.Second != nil {
			c2, v2 = g.End.First, *g.End.Second
			res.CrossChapter = true
			res.End = &Verse{Book: token, Chapter: c2, Verse: v2}
		} else {
			v2 = g.End.First
			res.End = &Verse{Book: token, Chapter: g.Chapter, Verse: v2}
		}
		res.EndID = verseID(details, token, res.End.Chapter, res.End.Verse)
	}

	res.Display = formatRange(details.Name, g.Chapter, g.Verse, c2, v2)
	res.RefAttr = formatRange(fullName(details), g.Chapter, g.Verse, c2, v2)
	return res
}

// singleSpace accepts one space or one no-break space, which &nbsp; in the
// source decodes to.
func singleSpace(s string) bool {
	return s == " " || s == "\u00a0"
}

func validPrefix(p string) bool {
	switch p {
	case "", "1", "2", "3":
		return true
	}
	return false
}

// resolveBook looks up the token as written and, for "2 Cor" style tokens,
// the compact form "2Cor" before degrading to the unknown-book fallback.
func resolveBook(token, compact string) books.Details {
	if d, ok := books.Find(token); ok {
		return d
	}
	if compact != token {
		if d, ok := books.Find(compact); ok {
			return d
		}
	}
	return books.Lookup(token)
}

// FormatDisplay renders a reference with the abbreviated book name.
// c2 and v2 may be empty; see formatRange for the three shapes.
func FormatDisplay(book, c1, v1, c2, v2 string) string {
	return formatRange(books.Lookup(book).Name, c1, v1, c2, v2)
}

// FormatRefAttr renders a reference with the full book name, for use as a
// machine-readable link target.
func FormatRefAttr(book, c1, v1, c2, v2 string) string {
	return formatRange(fullName(books.Lookup(book)), c1, v1, c2, v2)
}

func fullName(d books.Details) string {
	if d.FullName != "" {
		return d.FullName
	}
	return d.Name
}

func formatRange(name, c1, v1, c2, v2 string) string {
	switch {
	case c2 != "" && v2 != "":
		return fmt.Sprintf("%s %s:%s%s%s:%s", name, c1, v1, RangeDash, c2, v2)
	case v2 != "":
		return fmt.Sprintf("%s %s:%s%s%s", name, c1, v1, RangeDash, v2)
	default:
		return fmt.Sprintf("%s %s:%s", name, c1, v1)
	}
}

// VerseID computes the verse ID for a book token, chapter and verse.
// Components that are not integers yield 0 and a logged warning.
func VerseID(book, chapter, verse string) int {
	return verseID(books.Lookup(book), book, chapter, verse)
}

func verseID(d books.Details, token, chapter, verse string) int {
	c, err := strconv.Atoi(strings.TrimSpace(chapter))
	if err != nil {
		logging.ReferenceWarning(token, chapter, verse, err)
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(verse))
	if err != nil {
		logging.ReferenceWarning(token, chapter, verse, err)
		return 0
	}
	if c < 0 || v < 0 {
		logging.ReferenceWarning(token, chapter, verse, fmt.Errorf("negative component"))
		return 0
	}
	if c > 999 || v > 999 {
		logging.ReferenceWarning(token, chapter, verse, fmt.Errorf("component exceeds three digits"))
		return 0
	}
	id, err := strconv.Atoi(fmt.Sprintf("%s%03d%03d", d.Number, c, v))
	if err != nil {
		logging.ReferenceWarning(token, chapter, verse, err)
		return 0
	}
	return id
}
