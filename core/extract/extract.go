// Package extract turns finished SCML elements into note and resource
// records.
//
// The functions here never fail. An element that does not qualify comes
// back with a Reason describing why it was dropped; callers log it and move
// on.
package extract

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/gerdums/study-notes/core/encoding"
	"github.com/gerdums/study-notes/core/markup"
	"github.com/gerdums/study-notes/core/ref"
	scmlxml "github.com/gerdums/study-notes/core/xml"
)

// Resource types.
const (
	TypeFigure         = "figure"
	TypeChart          = "chart"
	TypeIntroduction   = "introduction"
	TypeNotes          = "notes"
	TypeOutline        = "outline"
	TypeBackground     = "background"
	TypeArticle        = "article"
	TypeChapterContent = "chapter_content"
	TypeTOCEntry       = "toc_entry"
	TypeIndexEntry     = "index_entry"
	TypeHeading        = "heading"
	TypeOther          = "other"
)

// NoteEntry is a study note anchored to a verse or verse range.
type NoteEntry struct {
	Start int `json:"start"`
	// End is omitted unless the note covers a range ending elsewhere.
	End     int    `json:"end,omitempty"`
	Content string `json:"content"`

	Book   string `json:"book,omitempty"`
	BookID string `json:"book_id,omitempty"`
}

// ResourceEntry is an auxiliary study resource.
type ResourceEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`

	Book   string `json:"book,omitempty"`
	BookID string `json:"book_id,omitempty"`

	// Image is the sidebar image the entry is keyed by, if any.
	Image string `json:"-"`
}

// Reason explains why an element produced no record. Kept means it did.
type Reason string

const (
	Kept               Reason = ""
	ReasonBadID        Reason = "bad_id"
	ReasonEmpty        Reason = "empty"
	ReasonBibleText    Reason = "bible_text"
	ReasonShortLabel   Reason = "short_label"
	ReasonStructural   Reason = "structural"
	ReasonNested       Reason = "nested"
	ReasonShortContent Reason = "short_content"
	ReasonTitleOnly    Reason = "title_only"
	ReasonUnknownKind  Reason = "unknown_kind"
)

// Skipped reports whether the element was dropped.
func (r Reason) Skipped() bool {
	return r != Kept
}

// Context carries the surroundings of an element that the element itself
// does not record.
type Context struct {
	// Division is the id of the enclosing <division>, if any.
	Division string
	// Heuristics defaults to DefaultHeuristics when nil.
	Heuristics *Heuristics
}

var defaultHeuristics = DefaultHeuristics()

func (c Context) heuristics() *Heuristics {
	if c.Heuristics != nil {
		return c.Heuristics
	}
	return defaultHeuristics
}

var (
	noteID    = regexp.MustCompile(`^com(\d+)`)
	bibleText = regexp.MustCompile(`^[a-z0-9\s]+\s+\d+$`)

	fighXref  = xpath.MustCompile(".//figh//xref")
	thXref    = xpath.MustCompile(".//th//xref")
	sidebarIm = xpath.MustCompile(".//figure//fig//img")
)

// Note extracts a <com> element. Its id carries the start verse
// ("com01001001", sub-verse letters ignored); the first <bcv><xbr t="...">
// supplies the header and the end of a range.
func Note(com *xmlquery.Node) (NoteEntry, Reason) {
	m := noteID.FindStringSubmatch(scmlxml.Attr(com, "id"))
	if m == nil {
		return NoteEntry{}, ReasonBadID
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return NoteEntry{}, ReasonBadID
	}
	note := NoteEntry{Start: start}

	var header string
	if xbr := scmlxml.FirstChild(scmlxml.FirstChild(com, markup.HeaderTag), "xbr"); xbr != nil {
		if t := scmlxml.Attr(xbr, "t"); t != "" {
			r := ref.Parse(t)
			display := strings.TrimSpace(scmlxml.LeadingText(xbr))
			if display == "" {
				display = r.Display
			}
			if display != "" {
				header = "<b><a>" + display + "</a></b>"
			}
			if r.EndID != 0 && r.EndID != start {
				note.End = r.EndID
			}
		}
	}

	content := header
	if body := markup.Serialize(com, true); body != "" {
		if content != "" {
			content += " "
		}
		content += body
	}
	note.Content = encoding.CollapseWhitespace(content)
	if note.Content == "" {
		return NoteEntry{}, ReasonEmpty
	}
	return note, Kept
}

// Resource extracts a chapter, figure, chart or opt-in element as a study
// resource, filtering out Bible text, bare headings and decoration.
func Resource(n *xmlquery.Node, ctx Context) (ResourceEntry, Reason) {
	h := ctx.heuristics()
	tag := n.Data
	id := scmlxml.Attr(n, "id")
	rawSemantic := scmlxml.Attr(n, "semantic")
	semantic := strings.ToLower(rawSemantic)
	matter := h.IsMatter(ctx.Division)

	switch {
	case tag == "chapter":
		if !containsAny(semantic, h.ChapterKeywords) {
			if isBibleText(id, semantic) {
				return ResourceEntry{}, ReasonBibleText
			}
			if !matter && shortLabel(semantic, h) {
				return ResourceEntry{}, ReasonShortLabel
			}
		}
	case tag == "figure":
		// Nested first: the container still needs the figure's images.
		if scmlxml.HasAncestor(n, nil, "sidebar", "sbch", "sbfig") {
			return ResourceEntry{}, ReasonNested
		}
		if id == "" || (strings.HasPrefix(id, "fig") && len(id) < 10) {
			return ResourceEntry{}, ReasonStructural
		}
	case tag == "sbch" || tag == "sbfig":
	case contains(h.ResourceTags, tag):
	default:
		return ResourceEntry{}, ReasonUnknownKind
	}

	if id == "" {
		if tag == "chapter" {
			if rawSemantic == "" {
				return ResourceEntry{}, ReasonBadID
			}
			id = "ch_" + strings.ReplaceAll(rawSemantic, " ", "_")
		} else {
			id = "resource_" + tag
		}
	}

	title := headingTitle(n, h)
	if title == "" && semantic != "" && !bibleText.MatchString(semantic) && len(strings.Fields(semantic)) > 1 {
		title = rawSemantic
	}
	if title == "" {
		title = "Resource " + id
	}

	content := encoding.CollapseWhitespace(markup.Serialize(n, false))
	if why := checkContent(content, title, h); why.Skipped() {
		return ResourceEntry{}, why
	}

	r := ResourceEntry{ID: id, Title: title, Content: content}
	switch tag {
	case "sbfig", "figure":
		r.Type = TypeFigure
	case "sbch":
		r.Type = TypeChart
	case "chapter":
		r.Type = h.chapterType(semantic)
		if r.Type != "" {
			break
		}
		if matter {
			r.Type = TypeChapterContent
			break
		}
		if utf8.RuneCountInString(content) < h.ArticleMinLength {
			return ResourceEntry{}, ReasonShortContent
		}
		r.Type = TypeArticle
	default:
		r.Type = extendedTypes[tag]
		if r.Type == "" {
			r.Type = TypeOther
		}
	}
	return r, Kept
}

// Sidebar extracts a <sidebar>. Ids starting with "sbc" are charts and
// "sbm" figures; other sidebars are dropped. Each content image yields one
// entry keyed by its file name. A sidebar without images yields one entry
// keyed by the slug of its title.
func Sidebar(n *xmlquery.Node, ctx Context) ([]ResourceEntry, Reason) {
	h := ctx.heuristics()
	id := scmlxml.Attr(n, "id")

	var typ string
	switch {
	case strings.HasPrefix(id, "sbc"):
		typ = TypeChart
	case strings.HasPrefix(id, "sbm"):
		typ = TypeFigure
	default:
		return nil, ReasonUnknownKind
	}

	title := sidebarTitle(n, h)
	if title == "" {
		title = id
	}

	content := encoding.CollapseWhitespace(markup.Serialize(n, false))
	if content == "" {
		content = title
	}
	if why := checkContent(content, title, h); why.Skipped() {
		return nil, why
	}

	images := SidebarImages(n, h)
	if len(images) == 0 {
		return []ResourceEntry{{ID: encoding.Slugify(title), Title: title, Content: content, Type: typ}}, Kept
	}
	out := make([]ResourceEntry, 0, len(images))
	for _, img := range images {
		out = append(out, ResourceEntry{ID: img, Title: title, Content: content, Type: typ, Image: img})
	}
	return out, Kept
}

// SidebarImages returns the basenames of the non-decorative images under
// n's figures, in document order.
func SidebarImages(n *xmlquery.Node, h *Heuristics) []string {
	if h == nil {
		h = defaultHeuristics
	}
	var out []string
	for _, img := range scmlxml.QueryAll(n, sidebarIm) {
		src := scmlxml.Attr(img, "src")
		if !strings.HasPrefix(src, "images/") {
			continue
		}
		name := path.Base(src)
		if h.decorative(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func isBibleText(id, semantic string) bool {
	return strings.HasPrefix(strings.ToLower(id), "ch") && bibleText.MatchString(semantic)
}

func shortLabel(semantic string, h *Heuristics) bool {
	return len(strings.Fields(semantic)) <= h.ShortLabelMaxWords && !containsAny(semantic, h.ShortLabelWords)
}

func checkContent(content, title string, h *Heuristics) Reason {
	if utf8.RuneCountInString(content) < h.MinContentLength {
		return ReasonShortContent
	}
	if strings.EqualFold(content, title) {
		return ReasonTitleOnly
	}
	return Kept
}

// headingTitle returns the direct text of the first descendant of the
// first title tag that has any.
func headingTitle(n *xmlquery.Node, h *Heuristics) string {
	for _, tag := range h.TitleTags {
		found := scmlxml.Descendants(n, tag)
		if len(found) == 0 {
			continue
		}
		if t := strings.TrimSpace(scmlxml.LeadingText(found[0])); t != "" {
			return t
		}
	}
	return ""
}

func sidebarTitle(n *xmlquery.Node, h *Heuristics) string {
	for _, expr := range []*xpath.Expr{fighXref, thXref} {
		if x := scmlxml.QueryOne(n, expr); x != nil {
			if t := strings.TrimSpace(scmlxml.LeadingText(x)); t != "" {
				return t
			}
		}
	}
	return headingTitle(n, h)
}
