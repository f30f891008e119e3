// Package config loads the optional heuristics file that tunes resource
// extraction.
//
// The file is YAML. Keys that are present replace the built-in value, keys
// that are absent keep it, and unknown keys are an error:
//
//	min_content_length: 80
//	resource_tags: [toc1, in]
//	decorative_images: [hcp-rule.jpg, ornament.png]
package config

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
)

// LoadHeuristics reads path over the defaults. An empty path returns the
// defaults.
func LoadHeuristics(path string) (*extract.Heuristics, error) {
	if path == "" {
		return extract.DefaultHeuristics(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &scmlerrors.NotFoundError{Resource: "heuristics file", ID: path, Err: err}
		}
		return nil, scmlerrors.NewIO("read", path, err)
	}
	h, err := DecodeHeuristics(bytes.NewReader(data))
	if err != nil {
		var pe *scmlerrors.ParseError
		if scmlerrors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return h, nil
}

// DecodeHeuristics decodes YAML from r over the defaults.
func DecodeHeuristics(r io.Reader) (*extract.Heuristics, error) {
	h := extract.DefaultHeuristics()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(h); err != nil && err != io.EOF {
		return nil, &scmlerrors.ParseError{Format: "YAML", Message: err.Error(), Err: err}
	}
	if err := validate(h); err != nil {
		return nil, err
	}
	return h, nil
}

func validate(h *extract.Heuristics) error {
	if h.MinContentLength < 0 {
		return scmlerrors.NewValidation("min_content_length", "", "must not be negative")
	}
	if h.ArticleMinLength < 0 {
		return scmlerrors.NewValidation("article_min_length", "", "must not be negative")
	}
	for _, rule := range h.TypeKeywords {
		if rule.Type == "" || len(rule.Keywords) == 0 {
			return scmlerrors.NewValidation("type_keywords", rule.Type, "each rule needs a type and keywords")
		}
	}
	if len(h.TitleTags) == 0 {
		return scmlerrors.NewValidation("title_tags", "", "must not be empty")
	}
	return nil
}
