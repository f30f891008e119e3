package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	scmlxml "github.com/gerdums/study-notes/core/xml"
)

const longText = "It tells of the creation of the world and of the first generations of humanity, from Adam to Noah."

func mustParse(t *testing.T, s string) *xmlquery.Node {
	t.Helper()
	n, err := scmlxml.ParseFragment(s)
	if err != nil {
		t.Fatalf("ParseFragment(%q): %v", s, err)
	}
	return n
}

func TestNote(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  NoteEntry
	}{
		{
			name:  "range header",
			input: `<com id="com01001001"><bcv><xbr t="Gen 1:1-3"/></bcv> In the beginning...</com>`,
			want:  NoteEntry{Start: 1001001, End: 1001003, Content: "<b><a>Gen. 1:1–3</a></b> In the beginning..."},
		},
		{
			name:  "inline display text wins",
			input: `<com id="com01001001"><bcv><xbr t="Gen 1:1">1:1</xbr></bcv> Body.</com>`,
			want:  NoteEntry{Start: 1001001, Content: "<b><a>1:1</a></b> Body."},
		},
		{
			name:  "end equal to start is dropped",
			input: `<com id="com01001001"><bcv><xbr t="Gen 1:1-1"/></bcv> Body.</com>`,
			want:  NoteEntry{Start: 1001001, Content: "<b><a>Gen. 1:1–1</a></b> Body."},
		},
		{
			name:  "sub-verse letters ignored",
			input: `<com id="com01001004a"><bcv><xbr t="Gen 1:4"/></bcv> Light.</com>`,
			want:  NoteEntry{Start: 1001004, Content: "<b><a>Gen. 1:4</a></b> Light."},
		},
		{
			name:  "no header",
			input: "<com id=\"com02003014\">\n  I AM   WHO I AM.\n</com>",
			want:  NoteEntry{Start: 2003014, Content: "I AM WHO I AM."},
		},
		{
			name:  "cross-chapter range",
			input: `<com id="com01001001"><bcv><xbr t="Gen 1:1-2:3"/></bcv> <i>Creation</i> week.</com>`,
			want:  NoteEntry{Start: 1001001, End: 1002003, Content: "<b><a>Gen. 1:1–2:3</a></b> <i>Creation</i> week."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, why := Note(mustParse(t, tt.input))
			if why.Skipped() {
				t.Fatalf("Note() skipped: %s", why)
			}
			if got != tt.want {
				t.Errorf("Note() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNoteSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Reason
	}{
		{"missing id", "<com>text</com>", ReasonBadID},
		{"wrong prefix", `<com id="note5">text</com>`, ReasonBadID},
		{"no digits", `<com id="comx">text</com>`, ReasonBadID},
		{"empty content", `<com id="com01001001"></com>`, ReasonEmpty},
		{"header without target", `<com id="com01001001"><bcv><xbr/></bcv></com>`, ReasonEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, why := Note(mustParse(t, tt.input))
			if why != tt.want {
				t.Errorf("Note() reason = %q, want %q", why, tt.want)
			}
		})
	}
}

func TestNoteJSONOmitsEnd(t *testing.T) {
	data, err := json.Marshal(NoteEntry{Start: 1001001, Content: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"start":1001001,"content":"x"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}

	data, err = json.Marshal(NoteEntry{Start: 1001001, End: 1001003, Content: "x", Book: "Genesis", BookID: "bk01"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"start":1001001,"end":1001003,"content":"x","book":"Genesis","book_id":"bk01"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestResource(t *testing.T) {
	article := strings.Repeat(longText+" ", 3)

	tests := []struct {
		name  string
		input string
		ctx   Context
		want  ResourceEntry
	}{
		{
			name:  "introduction",
			input: `<chapter id="intro01" semantic="Introduction to Genesis"><ctfm>Introduction to Genesis</ctfm><p>` + longText + `</p></chapter>`,
			want: ResourceEntry{
				ID: "intro01", Title: "Introduction to Genesis", Type: TypeIntroduction,
				Content: "Introduction to Genesis " + longText,
			},
		},
		{
			name:  "chapter id from semantic",
			input: `<chapter semantic="Introduction to Ruth"><p>` + longText + `</p></chapter>`,
			want: ResourceEntry{
				ID: "ch_Introduction_to_Ruth", Title: "Introduction to Ruth", Type: TypeIntroduction,
				Content: longText,
			},
		},
		{
			name:  "notes chapter",
			input: `<chapter id="ch_tn" semantic="Translator's Notes and Cross-References for Genesis"><p>` + longText + `</p></chapter>`,
			want: ResourceEntry{
				ID: "ch_tn", Title: "Translator's Notes and Cross-References for Genesis", Type: TypeNotes,
				Content: longText,
			},
		},
		{
			name:  "timeline is an outline",
			input: `<chapter id="t1" semantic="Timeline of the Patriarchs"><h2>Timeline</h2><p>` + longText + `</p></chapter>`,
			want: ResourceEntry{
				ID: "t1", Title: "Timeline", Type: TypeOutline,
				Content: "Timeline " + longText,
			},
		},
		{
			name:  "long article",
			input: `<chapter id="a1" semantic="Reading the Psalms with Purpose"><p>` + article + `</p></chapter>`,
			want: ResourceEntry{
				ID: "a1", Title: "Reading the Psalms with Purpose", Type: TypeArticle,
				Content: strings.TrimSpace(article),
			},
		},
		{
			name:  "front matter chapter",
			input: `<chapter id="pref" semantic="Preface"><p>` + longText + `</p></chapter>`,
			ctx:   Context{Division: "fm"},
			want: ResourceEntry{
				ID: "pref", Title: "Resource pref", Type: TypeChapterContent,
				Content: longText,
			},
		},
		{
			name:  "chart",
			input: `<sbch id="sbch0101"><inh>Days of Creation</inh><p>` + longText + `</p></sbch>`,
			want: ResourceEntry{
				ID: "sbch0101", Title: "Days of Creation", Type: TypeChart,
				Content: "Days of Creation " + longText,
			},
		},
		{
			name:  "figure",
			input: `<figure id="figure-gen-001"><p>` + longText + `</p></figure>`,
			want: ResourceEntry{
				ID: "figure-gen-001", Title: "Resource figure-gen-001", Type: TypeFigure,
				Content: longText,
			},
		},
		{
			name:  "opt-in tag",
			input: `<toc1><p>` + longText + `</p></toc1>`,
			ctx:   Context{Heuristics: &Heuristics{ResourceTags: []string{"toc1"}, MinContentLength: 50}},
			want: ResourceEntry{
				ID: "resource_toc1", Title: "Resource resource_toc1", Type: TypeTOCEntry,
				Content: longText,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, why := Resource(mustParse(t, tt.input), tt.ctx)
			if why.Skipped() {
				t.Fatalf("Resource() skipped: %s", why)
			}
			if got != tt.want {
				t.Errorf("Resource() =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestResourceSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ctx   Context
		want  Reason
	}{
		{
			name:  "bible text chapter",
			input: `<chapter id="ch01001" semantic="Song of Solomon 3"><p>` + longText + `</p></chapter>`,
			want:  ReasonBibleText,
		},
		{
			name:  "short generic label",
			input: `<chapter id="x1" semantic="Family Tree"><p>` + longText + `</p></chapter>`,
			want:  ReasonShortLabel,
		},
		{
			name:  "chapter without any label",
			input: `<chapter><p>` + longText + `</p></chapter>`,
			want:  ReasonShortLabel,
		},
		{
			name:  "short article",
			input: `<chapter id="a1" semantic="The Theme of Exodus"><p>` + longText + `</p></chapter>`,
			want:  ReasonShortContent,
		},
		{
			name:  "too short",
			input: `<sbch id="sbch1"><p>Short.</p></sbch>`,
			want:  ReasonShortContent,
		},
		{
			name:  "title only",
			input: `<sbfig id="sbfig1"><h1>` + longText + `</h1></sbfig>`,
			want:  ReasonTitleOnly,
		},
		{
			name:  "structural figure",
			input: `<figure id="fig1"><p>` + longText + `</p></figure>`,
			want:  ReasonStructural,
		},
		{
			name:  "figure without id",
			input: `<figure><p>` + longText + `</p></figure>`,
			want:  ReasonStructural,
		},
		{
			name:  "tag not opted in",
			input: `<toc1><p>` + longText + `</p></toc1>`,
			want:  ReasonUnknownKind,
		},
		{
			name:  "matter chapter without id or label",
			input: `<chapter><p>` + longText + `</p></chapter>`,
			ctx:   Context{Division: "bm"},
			want:  ReasonBadID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, why := Resource(mustParse(t, tt.input), tt.ctx)
			if why != tt.want {
				t.Errorf("Resource() reason = %q, want %q", why, tt.want)
			}
		})
	}
}

func TestResourceNestedFigure(t *testing.T) {
	sb := mustParse(t, `<sbfig id="sbfig1"><figure id="figure-gen-001"><p>`+longText+`</p></figure></sbfig>`)
	fig := scmlxml.FirstChild(sb, "figure")
	if _, why := Resource(fig, Context{}); why != ReasonNested {
		t.Errorf("nested figure reason = %q, want %q", why, ReasonNested)
	}
	if r, why := Resource(sb, Context{}); why.Skipped() || r.Type != TypeFigure {
		t.Errorf("enclosing sbfig = %+v, %q", r, why)
	}
}

func TestResourceNestedShortIDFigure(t *testing.T) {
	sb := mustParse(t, `<sidebar id="sbm0101"><figure id="fig01"><p>`+longText+`</p></figure><figure><p>`+longText+`</p></figure></sidebar>`)
	for _, fig := range scmlxml.Elements(sb) {
		if _, why := Resource(fig, Context{}); why != ReasonNested {
			t.Errorf("figure %q reason = %q, want %q", scmlxml.Attr(fig, "id"), why, ReasonNested)
		}
	}
}

func TestSidebar(t *testing.T) {
	t.Run("one entry per content image", func(t *testing.T) {
		n := mustParse(t, `<sidebar id="sbc0101"><figh><xref>Kings of Israel</xref></figh><p>`+longText+`</p>`+
			`<figure><fig><img src="images/kings.jpg"/><img src="images/hcp-rule.jpg"/><img src="other/x.jpg"/></fig>`+
			`<fig><img src="images/kings-2.jpg"/></fig></figure></sidebar>`)
		got, why := Sidebar(n, Context{})
		if why.Skipped() {
			t.Fatalf("Sidebar() skipped: %s", why)
		}
		if len(got) != 2 {
			t.Fatalf("Sidebar() returned %d entries, want 2", len(got))
		}
		for i, id := range []string{"kings.jpg", "kings-2.jpg"} {
			if got[i].ID != id || got[i].Image != id {
				t.Errorf("entry %d id = %q image = %q, want %q", i, got[i].ID, got[i].Image, id)
			}
			if got[i].Type != TypeChart || got[i].Title != "Kings of Israel" {
				t.Errorf("entry %d = %+v", i, got[i])
			}
			if got[i].Content != "Kings of Israel "+longText {
				t.Errorf("entry %d content = %q", i, got[i].Content)
			}
		}
	})

	t.Run("text only keyed by title slug", func(t *testing.T) {
		n := mustParse(t, `<sidebar id="sbm0102"><table><th><xref>Paul's Journeys</xref></th></table><p>`+longText+`</p></sidebar>`)
		got, why := Sidebar(n, Context{})
		if why.Skipped() || len(got) != 1 {
			t.Fatalf("Sidebar() = %v, %q", got, why)
		}
		want := ResourceEntry{ID: "pauls-journeys", Title: "Paul's Journeys", Type: TypeFigure, Content: longText}
		if got[0] != want {
			t.Errorf("Sidebar() = %+v, want %+v", got[0], want)
		}
	})

	t.Run("id as title", func(t *testing.T) {
		got, why := Sidebar(mustParse(t, `<sidebar id="sbc9"><p>`+longText+`</p></sidebar>`), Context{})
		if why.Skipped() || got[0].Title != "sbc9" || got[0].ID != "sbc9" {
			t.Errorf("Sidebar() = %v, %q", got, why)
		}
	})

	tests := []struct {
		name  string
		input string
		want  Reason
	}{
		{"unknown prefix", `<sidebar id="sbx1"><p>` + longText + `</p></sidebar>`, ReasonUnknownKind},
		{"missing id", `<sidebar><p>` + longText + `</p></sidebar>`, ReasonUnknownKind},
		{"short content", `<sidebar id="sbc1"><p>Brief.</p></sidebar>`, ReasonShortContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, why := Sidebar(mustParse(t, tt.input), Context{}); why != tt.want {
				t.Errorf("Sidebar() reason = %q, want %q", why, tt.want)
			}
		})
	}
}

func TestHeuristics(t *testing.T) {
	h := DefaultHeuristics()
	for _, tag := range []string{"chapter", "figure", "sbch", "sbfig"} {
		if !h.IsResourceTag(tag) {
			t.Errorf("IsResourceTag(%q) = false", tag)
		}
	}
	if h.IsResourceTag("toc1") {
		t.Error("toc1 should be opt-in")
	}
	if !h.IsMatter("FM") || h.IsMatter("") || h.IsMatter("body") {
		t.Error("IsMatter() mismatch")
	}

	h.MinContentLength = 1
	if DefaultHeuristics().MinContentLength != 50 {
		t.Error("DefaultHeuristics() shares state between calls")
	}
}
