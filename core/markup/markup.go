// Package markup flattens SCML element trees into the inline markup used by
// note and resource content: <b>, <i> and <a ref='...'> links, with lists,
// tables and headings reduced to plain runs of text.
package markup

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/gerdums/study-notes/core/encoding"
	"github.com/gerdums/study-notes/core/ref"
	scmlxml "github.com/gerdums/study-notes/core/xml"
)

// Category is the rendering rule applied to an element.
type Category int

const (
	Passthrough Category = iota
	Bold
	Italic
	Link
	Paragraph
	List
	Table
	Heading
)

// HeaderTag is the reference-header container of a note.
const HeaderTag = "bcv"

// BulletPrefix starts every flattened list item.
const BulletPrefix = "• "

// CellSeparator joins the cells of a flattened table row.
const CellSeparator = " | "

var categories = map[string]Category{
	"b":     Bold,
	"bi":    Bold,
	"i":     Italic,
	"xbr":   Link,
	"p":     Paragraph,
	"para":  Paragraph,
	"pf":    Paragraph,
	"pcon":  Paragraph,
	"list":  List,
	"ul":    List,
	"ol":    List,
	"table": Table,
	"h1":    Heading,
	"h2":    Heading,
	"h3":    Heading,
	"ah":    Heading,
	"inh":   Heading,
	"ctfm":  Heading,
}

var (
	listItemTags = []string{"bl", "blf", "bll", "li"}
	rowTags      = []string{"tr", "row"}
	cellTags     = []string{"cell", "td", "tdnl", "tdul"}
)

// CategoryOf returns the rendering rule for tag. Unknown tags pass through.
func CategoryOf(tag string) Category {
	return categories[tag]
}

// Serialize flattens n's content. With noteRoot set, n is treated as a
// <com> element: its leading text is only kept when it has no children and
// the first <bcv> child is skipped (its tail is kept), because the caller
// renders that reference as the note header.
//
// Fragments are joined with single spaces. The result is not trimmed or
// whitespace-collapsed.
func Serialize(n *xmlquery.Node, noteRoot bool) string {
	var parts []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}

	if !noteRoot || !scmlxml.HasElements(n) {
		add(strings.TrimSpace(scmlxml.LeadingText(n)))
	}

	headerSkipped := false
	for _, child := range scmlxml.Elements(n) {
		if noteRoot && !headerSkipped && child.Data == HeaderTag {
			headerSkipped = true
			add(strings.TrimSpace(scmlxml.Tail(child)))
			continue
		}
		add(render(child))
		add(strings.TrimSpace(scmlxml.Tail(child)))
	}
	return strings.Join(parts, " ")
}

func render(n *xmlquery.Node) string {
	switch CategoryOf(n.Data) {
	case Bold:
		return "<b>" + Serialize(n, false) + "</b>"
	case Italic:
		return "<i>" + Serialize(n, false) + "</i>"
	case Link:
		return renderLink(n)
	case List:
		return renderList(n)
	case Table:
		return renderTable(n)
	default:
		// Paragraph, Heading and unknown tags keep their content as is.
		return Serialize(n, false)
	}
}

// renderLink turns <xbr t="Gen 1:1">text</xbr> into
// <a ref='Genesis 1:1'>text</a>. Empty elements show the abbreviated
// display form of t.
func renderLink(n *xmlquery.Node) string {
	text := strings.TrimSpace(scmlxml.LeadingText(n))
	t := scmlxml.Attr(n, "t")
	if t == "" {
		return "<a>" + text + "</a>"
	}

	r := ref.Parse(t)
	target := t
	if r.Matched {
		target = r.RefAttr
	}
	if text == "" {
		text = r.Display
		if text == "" {
			text = t
		}
	}
	return "<a ref='" + encoding.EscapeRefAttr(target) + "'>" + text + "</a>"
}

func renderList(n *xmlquery.Node) string {
	var items []string
	for _, item := range scmlxml.Outermost(n, listItemTags...) {
		if s := Serialize(item, false); s != "" {
			items = append(items, BulletPrefix+s)
		}
	}
	return strings.Join(items, " ")
}

func renderTable(n *xmlquery.Node) string {
	var rows []string
	for _, row := range scmlxml.Outermost(n, rowTags...) {
		var cells []string
		for _, cell := range scmlxml.Outermost(row, cellTags...) {
			if s := Serialize(cell, false); s != "" {
				cells = append(cells, s)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, CellSeparator))
		}
	}
	return strings.Join(rows, " ")
}
