// Package xml reads SCML into xmlquery trees and writes them back out.
//
// SCML files carry many top-level <book> elements with no single root, so
// every reader goes through WrapRoot, which inserts a synthetic <root> after
// the XML prolog. Trees are built with ElementTree-like text semantics:
// comments and processing instructions are dropped, adjacent character data
// is merged into one text node, and HTML named entities are accepted.
//
// Use Stream for whole documents. It emits start/end events and lets the
// caller Release finished subtrees so peak memory stays bounded by the
// largest open element rather than by the file.
package xml

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/gerdums/study-notes/core/encoding"
)

// RootName is the tag of the synthetic wrapping element.
const RootName = "root"

// FormatOptions controls XML formatting behavior.
type FormatOptions struct {
	Indent      string // Indentation string (e.g., "  " or "\t")
	Declaration bool   // Write an XML declaration first
}

// newDecoder returns a decoder configured for SCML input.
func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.Strict = true
	// SCML exports use HTML entities (&mdash;, &nbsp;) without a DTD.
	d.Entity = xml.HTMLEntity
	return d
}

// Parse reads a complete document into memory and returns the synthetic
// root element. Prefer Stream for large inputs.
func Parse(r io.Reader) (*xmlquery.Node, error) {
	return build(r, StreamOptions{}, nil)
}

// ParseFragment parses a standalone piece of markup such as a single <com>
// element cut out of a damaged file. It returns the first element.
func ParseFragment(s string) (*xmlquery.Node, error) {
	root, err := Parse(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c, nil
		}
	}
	return nil, io.ErrUnexpectedEOF
}

// Format writes nodes as pretty-printed XML under a new root element named
// rootName.
func Format(w io.Writer, rootName string, nodes []*xmlquery.Node, opts FormatOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	bw := bufio.NewWriter(w)
	if opts.Declaration {
		bw.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	}
	bw.WriteString("<" + rootName + ">\n")
	for _, n := range nodes {
		formatNode(bw, n, 1, opts.Indent)
	}
	bw.WriteString("</" + rootName + ">\n")
	return bw.Flush()
}

// formatNode recursively formats an XML node. Elements with mixed content
// are written inline so their text keeps its spacing.
func formatNode(w *bufio.Writer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			formatNode(w, child, depth, indent)
		}

	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		writeElement(w, n, depth, indent)
		w.WriteString("\n")

	case xmlquery.TextNode, xmlquery.CharDataNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			writeIndent(w, depth, indent)
			w.WriteString(encoding.EscapeXMLText(text))
			w.WriteString("\n")
		}
	}
}

func writeElement(w *bufio.Writer, n *xmlquery.Node, depth int, indent string) {
	writeStartTag(w, n)
	if n.FirstChild == nil {
		w.WriteString("/>")
		return
	}
	w.WriteString(">")

	if isMixed(n) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeInline(w, child)
		}
	} else {
		hasElements := false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				if !hasElements {
					w.WriteString("\n")
					hasElements = true
				}
				formatNode(w, child, depth+1, indent)
			}
		}
		if hasElements {
			writeIndent(w, depth, indent)
		}
	}
	w.WriteString("</" + n.Data + ">")
}

func writeInline(w *bufio.Writer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.ElementNode:
		writeStartTag(w, n)
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeInline(w, child)
		}
		w.WriteString("</" + n.Data + ">")
	case xmlquery.TextNode, xmlquery.CharDataNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))
	}
}

func writeStartTag(w *bufio.Writer, n *xmlquery.Node) {
	w.WriteString("<")
	w.WriteString(n.Data)
	for _, attr := range n.Attr {
		w.WriteString(" ")
		if prefix := attrPrefix(attr.Name.Space); prefix != "" {
			w.WriteString(prefix)
			w.WriteString(":")
		}
		w.WriteString(attr.Name.Local)
		w.WriteString("=\"")
		w.WriteString(encoding.EscapeXMLAttr(attr.Value))
		w.WriteString("\"")
	}
}

// attrPrefix maps a decoded attribute namespace back to a prefix. The
// decoder resolves "xml:" to its namespace URL; other URLs are dropped.
func attrPrefix(space string) string {
	switch {
	case space == "":
		return ""
	case space == "http://www.w3.org/XML/1998/namespace":
		return "xml"
	case strings.Contains(space, "/"):
		return ""
	default:
		return space
	}
}

// isMixed reports whether n has non-whitespace text next to child elements
// or only text.
func isMixed(n *xmlquery.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if (child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode) && strings.TrimSpace(child.Data) != "" {
			return true
		}
	}
	return false
}

func writeIndent(w *bufio.Writer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}
