package extract

import "strings"

// TypeRule maps semantic-label keywords to a resource type. Rules are
// tried in order and the first rule with a matching keyword wins.
type TypeRule struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords"`
}

// Heuristics holds the empirical thresholds and keyword lists used to tell
// study resources apart from Bible text and decoration. The zero value is
// not useful; start from DefaultHeuristics.
type Heuristics struct {
	// MinContentLength is the shortest flattened content kept for any
	// resource.
	MinContentLength int `yaml:"min_content_length"`
	// ArticleMinLength applies to chapters that match no type keyword.
	ArticleMinLength int `yaml:"article_min_length"`

	// ChapterKeywords mark a chapter as a study resource outright.
	ChapterKeywords []string `yaml:"chapter_keywords"`
	// ShortLabelWords rescue labels of ShortLabelMaxWords words or fewer.
	ShortLabelWords    []string `yaml:"short_label_words"`
	ShortLabelMaxWords int      `yaml:"short_label_max_words"`

	TypeKeywords []TypeRule `yaml:"type_keywords"`
	TitleTags    []string   `yaml:"title_tags"`

	// DecorativeImages are sidebar image basenames never emitted.
	DecorativeImages []string `yaml:"decorative_images"`

	// ResourceTags opts extra element tags into resource extraction.
	ResourceTags []string `yaml:"resource_tags"`
	// MatterDivisions are division ids holding front and back matter.
	MatterDivisions []string `yaml:"matter_divisions"`
}

// DefaultHeuristics returns the built-in heuristics. Each call returns a
// fresh copy that the caller may modify.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		MinContentLength: 50,
		ArticleMinLength: 200,
		ChapterKeywords: []string{
			"introduction", "outline", "notes", "features", "translator",
			"cross-references", "article", "timeline", "map", "chart",
			"background", "setting", "theme", "purpose",
		},
		ShortLabelWords:    []string{"introduction", "outline", "notes"},
		ShortLabelMaxWords: 3,
		TypeKeywords: []TypeRule{
			{Type: TypeIntroduction, Keywords: []string{"introduction"}},
			{Type: TypeNotes, Keywords: []string{"notes", "features", "translator"}},
			{Type: TypeOutline, Keywords: []string{"outline", "timeline", "chronology"}},
			{Type: TypeBackground, Keywords: []string{"background", "setting", "context"}},
			{Type: TypeChart, Keywords: []string{"map", "chart", "table"}},
		},
		TitleTags: []string{"ctfm", "ct", "ah", "inh", "h1", "h2"},
		DecorativeImages: []string{
			"hcp-rule.jpg", "ctorntop.jpg", "ctornbottom.jpg",
			"csorn.jpg", "hcp-logo.jpg", "hcp-esvlogo.jpg",
		},
		MatterDivisions: []string{"fm", "bm"},
	}
}

// extendedTypes maps opt-in tags to their resource type.
var extendedTypes = map[string]string{
	"toc1": TypeTOCEntry,
	"in":   TypeIndexEntry,
	"inh":  TypeHeading,
}

// IsResourceTag reports whether elements named tag go through Resource.
func (h *Heuristics) IsResourceTag(tag string) bool {
	switch tag {
	case "chapter", "figure", "sbch", "sbfig":
		return true
	}
	return contains(h.ResourceTags, tag)
}

// IsMatter reports whether a division id holds front or back matter.
func (h *Heuristics) IsMatter(division string) bool {
	return division != "" && contains(h.MatterDivisions, strings.ToLower(division))
}

func (h *Heuristics) decorative(name string) bool {
	return contains(h.DecorativeImages, name)
}

// chapterType classifies a lower-cased semantic label, returning "" when no
// rule matches.
func (h *Heuristics) chapterType(semantic string) string {
	for _, rule := range h.TypeKeywords {
		if containsAny(semantic, rule.Keywords) {
			return rule.Type
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
