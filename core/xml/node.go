package xml

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// LeadingText returns the character data before n's first child element.
func LeadingText(n *xmlquery.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			break
		}
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Tail returns the character data between n's end tag and the next sibling
// element (or the parent's end tag).
func Tail(n *xmlquery.Node) string {
	var sb strings.Builder
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == xmlquery.ElementNode {
			break
		}
		if s.Type == xmlquery.TextNode || s.Type == xmlquery.CharDataNode {
			sb.WriteString(s.Data)
		}
	}
	return sb.String()
}

// Elements returns n's child elements in document order.
func Elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// HasElements reports whether n has at least one child element.
func HasElements(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

// FirstChild returns n's first child element named tag. A nil n has no
// children.
func FirstChild(n *xmlquery.Node, tag string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// Attr returns the value of the named attribute, or "".
func Attr(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	return n.SelectAttr(name)
}

// Descendants returns the descendant elements of n whose tag is in tags, in
// document order.
func Descendants(n *xmlquery.Node, tags ...string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if hasTag(c, tags) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Outermost returns the descendants of n with a tag in tags that have no
// ancestor with a tag in tags below n.
func Outermost(n *xmlquery.Node, tags ...string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if hasTag(c, tags) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// HasAncestor reports whether any ancestor of n below stop has a tag in
// tags. A nil stop searches to the top of the tree.
func HasAncestor(n, stop *xmlquery.Node, tags ...string) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == xmlquery.ElementNode && hasTag(p, tags) {
			return true
		}
	}
	return false
}

func hasTag(n *xmlquery.Node, tags []string) bool {
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// QueryOne evaluates a compiled expression relative to n.
func QueryOne(n *xmlquery.Node, expr *xpath.Expr) *xmlquery.Node {
	return xmlquery.QuerySelector(n, expr)
}

// QueryAll evaluates a compiled expression relative to n.
func QueryAll(n *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node {
	return xmlquery.QuerySelectorAll(n, expr)
}

// Release detaches a finished subtree from its parent so it can be
// collected. Releasing a detached node is a no-op.
func Release(n *xmlquery.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	xmlquery.RemoveFromTree(n)
}
