package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
)

func TestDecodeHeuristics(t *testing.T) {
	in := `
min_content_length: 80
resource_tags: [toc1, in]
type_keywords:
  - type: chart
    keywords: [diagram]
`
	h, err := DecodeHeuristics(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeHeuristics() error = %v", err)
	}
	if h.MinContentLength != 80 {
		t.Errorf("MinContentLength = %d, want 80", h.MinContentLength)
	}
	if !reflect.DeepEqual(h.ResourceTags, []string{"toc1", "in"}) {
		t.Errorf("ResourceTags = %v", h.ResourceTags)
	}
	if len(h.TypeKeywords) != 1 || h.TypeKeywords[0].Type != extract.TypeChart {
		t.Errorf("TypeKeywords = %+v", h.TypeKeywords)
	}

	def := extract.DefaultHeuristics()
	if h.ArticleMinLength != def.ArticleMinLength {
		t.Errorf("ArticleMinLength = %d, want default %d", h.ArticleMinLength, def.ArticleMinLength)
	}
	if !reflect.DeepEqual(h.DecorativeImages, def.DecorativeImages) {
		t.Errorf("DecorativeImages lost defaults: %v", h.DecorativeImages)
	}
}

func TestDecodeHeuristicsEmpty(t *testing.T) {
	h, err := DecodeHeuristics(strings.NewReader(""))
	if err != nil {
		t.Fatalf("DecodeHeuristics() error = %v", err)
	}
	if !reflect.DeepEqual(h, extract.DefaultHeuristics()) {
		t.Error("empty input should yield the defaults")
	}
}

func TestDecodeHeuristicsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		parse bool
	}{
		{"unknown key", "min_length: 3\n", true},
		{"wrong type", "min_content_length: lots\n", true},
		{"negative", "min_content_length: -1\n", false},
		{"rule without keywords", "type_keywords:\n  - type: chart\n", false},
		{"no title tags", "title_tags: []\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeuristics(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("DecodeHeuristics() succeeded")
			}
			var pe *scmlerrors.ParseError
			if got := errors.As(err, &pe); got != tt.parse {
				t.Errorf("ParseError = %v, want %v (err %v)", got, tt.parse, err)
			}
			if !tt.parse && !errors.Is(err, scmlerrors.ErrInvalidInput) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

func TestLoadHeuristics(t *testing.T) {
	h, err := LoadHeuristics("")
	if err != nil || h.MinContentLength != 50 {
		t.Fatalf("LoadHeuristics(\"\") = %+v, %v", h, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "heuristics.yaml")
	if err := os.WriteFile(path, []byte("article_min_length: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err = LoadHeuristics(path)
	if err != nil || h.ArticleMinLength != 10 {
		t.Fatalf("LoadHeuristics() = %+v, %v", h, err)
	}

	if _, err := LoadHeuristics(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("nope: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadHeuristics(bad)
	var pe *scmlerrors.ParseError
	if !errors.As(err, &pe) || pe.Path != bad {
		t.Errorf("bad file error = %v", err)
	}
}
