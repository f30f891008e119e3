package xml

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WrapRoot returns a reader that yields r's prolog (XML declaration and
// DOCTYPE, if any) followed by the rest of r enclosed in <root>...</root>.
// A UTF-8 byte order mark is dropped.
func WrapRoot(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, 64*1024)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	prolog := readProlog(br)
	return io.MultiReader(
		strings.NewReader(prolog),
		strings.NewReader("<"+RootName+">"),
		br,
		strings.NewReader("</"+RootName+">"),
	)
}

// readProlog consumes leading whitespace, an XML declaration and a DOCTYPE.
func readProlog(br *bufio.Reader) string {
	var sb strings.Builder
	for {
		skipSpace(br, &sb)
		switch {
		case hasPrefix(br, "<?xml"):
			s, err := br.ReadString('>')
			sb.WriteString(s)
			if err != nil {
				return sb.String()
			}
		case hasPrefix(br, "<!DOCTYPE"):
			if !readDoctype(br, &sb) {
				return sb.String()
			}
		default:
			return sb.String()
		}
	}
}

func hasPrefix(br *bufio.Reader, prefix string) bool {
	b, err := br.Peek(len(prefix))
	return err == nil && string(b) == prefix
}

func skipSpace(br *bufio.Reader, sb *strings.Builder) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			sb.WriteByte(b[0])
			_, _ = br.Discard(1)
		default:
			return
		}
	}
}

// readDoctype copies a DOCTYPE declaration including an internal subset.
func readDoctype(br *bufio.Reader, sb *strings.Builder) bool {
	depth := 0
	for {
		c, err := br.ReadByte()
		if err != nil {
			return false
		}
		sb.WriteByte(c)
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth <= 0 {
				return true
			}
		}
	}
}
