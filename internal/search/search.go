// Package search builds a full-text index over converted notes and
// resources and queries it.
package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve"

	"github.com/gerdums/study-notes/core/encoding"
	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/core/extract"
)

// Document kinds.
const (
	KindNote     = "note"
	KindResource = "resource"
)

// Document is what gets indexed for one record. Content has its markup
// stripped.
type Document struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Start   int    `json:"start,omitempty"`
	Type    string `json:"type,omitempty"`
	Book    string `json:"book,omitempty"`
}

// Hit is one search result.
type Hit struct {
	ID      string
	Kind    string
	Title   string
	Book    string
	Start   int
	Score   float64
	Snippet string
}

var storedFields = []string{"kind", "title", "start", "type", "book"}

// Index wraps a bleve index of records.
type Index struct {
	idx bleve.Index
}

// Create makes a new index at path. An empty path keeps it in memory.
func Create(path string) (*Index, error) {
	mapping := bleve.NewIndexMapping()
	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		idx, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, scmlerrors.NewIO("create index", path, err)
	}
	return &Index{idx: idx}, nil
}

// Open opens an index written by Create.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return nil, &scmlerrors.NotFoundError{Resource: "search index", ID: path, Err: err}
	}
	if err != nil {
		return nil, scmlerrors.NewIO("open index", path, err)
	}
	return &Index{idx: idx}, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.idx.Close()
}

// Add indexes notes and resources in one batch and returns the number of
// documents added. Notes are keyed "note:<start>" and resources
// "resource:<id>"; repeated keys get a ":<n>" suffix.
func (i *Index) Add(notes []extract.NoteEntry, resources []extract.ResourceEntry) (int, error) {
	b := i.idx.NewBatch()
	ids := newIDs()
	for _, n := range notes {
		doc := Document{
			Kind:    KindNote,
			Title:   noteTitle(n),
			Content: encoding.StripTags(n.Content),
			Start:   n.Start,
			Book:    n.Book,
		}
		if err := b.Index(ids.next(KindNote+":"+strconv.Itoa(n.Start)), doc); err != nil {
			return 0, err
		}
	}
	for _, r := range resources {
		doc := Document{
			Kind:    KindResource,
			Title:   r.Title,
			Content: encoding.StripTags(r.Content),
			Type:    r.Type,
			Book:    r.Book,
		}
		if err := b.Index(ids.next(KindResource+":"+r.ID), doc); err != nil {
			return 0, err
		}
	}
	count := b.Size()
	if err := i.idx.Batch(b); err != nil {
		return 0, scmlerrors.NewIO("write index", "", err)
	}
	return count, nil
}

// Search runs a bleve query-string query and returns at most limit hits,
// best first.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	req.Fields = storedFields
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, scmlerrors.Wrapf(err, "search %q", query)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{
			ID:    h.ID,
			Kind:  stringField(h.Fields, "kind"),
			Title: stringField(h.Fields, "title"),
			Book:  stringField(h.Fields, "book"),
			Score: h.Score,
		}
		if f, ok := h.Fields["start"].(float64); ok {
			hit.Start = int(f)
		}
		if frags := h.Fragments["content"]; len(frags) > 0 {
			hit.Snippet = frags[0]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count reports the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.idx.DocCount()
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func noteTitle(n extract.NoteEntry) string {
	if n.Book != "" {
		return fmt.Sprintf("%s %d", n.Book, n.Start)
	}
	return strconv.Itoa(n.Start)
}

type ids map[string]int

func newIDs() ids { return make(ids) }

func (m ids) next(base string) string {
	m[base]++
	if n := m[base]; n > 1 {
		return base + ":" + strconv.Itoa(n)
	}
	return base
}
