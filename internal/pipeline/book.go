package pipeline

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/gerdums/study-notes/core/books"
	scmlxml "github.com/gerdums/study-notes/core/xml"
)

// UnknownBook names records that appear before any <book>.
const UnknownBook = "UnknownBook"

// Book identifies the <book> a record was found in.
type Book struct {
	// Name is the book's display name, e.g. "Genesis".
	Name string
	// ID is the "bkNN" id of a Bible book. Front matter books have none.
	ID string
	// Canonical is true for "bkNN" books, which count toward progress.
	Canonical bool
}

// ResolveBook names a book from its start-tag attributes: the semantic
// label, else the registry name for a "bkNN" id, else the id itself.
func ResolveBook(id, semantic string) Book {
	if strings.HasPrefix(id, "bk") {
		b := Book{Name: semantic, ID: id, Canonical: true}
		if b.Name == "" {
			b.Name = id
			if d, ok := books.ByNumber(strings.TrimPrefix(id, "bk")); ok {
				b.Name = d.FullName
			}
		}
		return b
	}
	switch {
	case semantic != "":
		return Book{Name: semantic}
	case id != "":
		return Book{Name: id}
	}
	return Book{Name: UnknownBook}
}

func bookOf(n *xmlquery.Node) Book {
	return ResolveBook(scmlxml.Attr(n, "id"), scmlxml.Attr(n, "semantic"))
}
