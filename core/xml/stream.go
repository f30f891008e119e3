package xml

import (
	"encoding/xml"
	"errors"
	"io"

	"github.com/antchfx/xmlquery"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// EventKind distinguishes element start and end events.
type EventKind int

const (
	// StartElement fires after an element and its attributes are attached
	// to the tree. Its children are not yet known.
	StartElement EventKind = iota
	// EndElement fires when the element's subtree is complete.
	EndElement
)

func (k EventKind) String() string {
	if k == StartElement {
		return "start"
	}
	return "end"
}

// Event is one step of a stream.
type Event struct {
	Kind EventKind
	Node *xmlquery.Node
	// Depth is 1 for children of the synthetic root.
	Depth int
}

// Handler receives stream events. Returning an error stops the stream and
// the error is returned from Stream unchanged.
type Handler func(Event) error

// StreamOptions configures Stream.
type StreamOptions struct {
	// Path names the input in parse errors.
	Path string
	// KeepTopLevel keeps finished children of the synthetic root attached.
	// By default they are released after their end event.
	KeepTopLevel bool
}

// Stream parses r and reports element events to h.
//
// A malformed document fails with *errors.ParseError. Handlers may call
// Release on the event node (or any finished descendant) during an end
// event.
func Stream(r io.Reader, opts StreamOptions, h Handler) error {
	_, err := build(r, opts, h)
	return err
}

func build(r io.Reader, opts StreamOptions, h Handler) (*xmlquery.Node, error) {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	d := newDecoder(WrapRoot(r))

	var (
		root  *xmlquery.Node
		stack []*xmlquery.Node
	)
	release := h != nil && !opts.KeepTopLevel

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(opts.Path, d, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlquery.Node{Type: xmlquery.ElementNode, Data: t.Name.Local}
			for _, a := range t.Attr {
				n.Attr = append(n.Attr, xmlquery.Attr{Name: a.Name, Value: a.Value})
			}
			if root == nil {
				xmlquery.AddChild(doc, n)
				root = n
				stack = append(stack, n)
				continue
			}
			xmlquery.AddChild(stack[len(stack)-1], n)
			stack = append(stack, n)
			if h != nil {
				if err := h(Event{Kind: StartElement, Node: n, Depth: len(stack) - 1}); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			n := stack[len(stack)-1]
			depth := len(stack) - 1
			stack = stack[:len(stack)-1]
			if n == root {
				continue
			}
			if h != nil {
				if err := h(Event{Kind: EndElement, Node: n, Depth: depth}); err != nil {
					return nil, err
				}
			}
			if release && depth == 1 {
				Release(n)
			}

		case xml.CharData:
			if len(stack) > 0 {
				appendText(stack[len(stack)-1], string(t))
			}
		}
	}

	if root == nil {
		return nil, &scmlerrors.ParseError{Format: "SCML", Path: opts.Path, Message: "no content"}
	}
	return root, nil
}

// appendText adds character data to parent, merging with a preceding text
// node the way ElementTree folds text around dropped comments.
func appendText(parent *xmlquery.Node, data string) {
	if last := parent.LastChild; last != nil && last.Type == xmlquery.TextNode {
		last.Data += data
		return
	}
	xmlquery.AddChild(parent, &xmlquery.Node{Type: xmlquery.TextNode, Data: data})
}

func parseError(path string, d *xml.Decoder, err error) error {
	pe := &scmlerrors.ParseError{Format: "SCML", Path: path, Message: err.Error(), Err: err}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		pe.Line = se.Line
		pe.Message = se.Msg
	} else {
		pe.Line, _ = d.InputPos()
	}
	return pe
}
