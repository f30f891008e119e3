// Package source opens SCML inputs, decompressing .xz and .gz files on the
// fly.
package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// Compression names reported by Reader.Compression.
const (
	None = ""
	XZ   = "xz"
	Gzip = "gzip"
)

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1F, 0x8B}

	// Recognized but not decoded.
	unsupportedMagic = []struct {
		name  string
		magic []byte
	}{
		{"bzip2", []byte("BZh")},
		{"zstd", []byte{0x28, 0xB5, 0x2F, 0xFD}},
		{"zip", []byte("PK\x03\x04")},
	}
)

// Reader yields the decompressed bytes of an input file.
type Reader struct {
	io.Reader
	// Path is the file that was opened.
	Path string
	// Size is the size on disk, before decompression.
	Size        int64
	Compression string

	file         *os.File
	decompressor io.Closer
}

// Open opens path and detects compression from the leading magic bytes,
// so a renamed archive still decodes.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &scmlerrors.NotFoundError{Resource: "scml file", ID: path, Err: err}
		}
		return nil, scmlerrors.NewIO("open", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, scmlerrors.NewIO("stat", path, err)
	}

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(xzMagic))

	r := &Reader{Reader: br, Path: path, Size: st.Size(), file: f}
	switch {
	case bytes.HasPrefix(head, xzMagic):
		xzr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, scmlerrors.NewIO("decompress", path, err)
		}
		r.Reader = xzr
		r.Compression = XZ
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, scmlerrors.NewIO("decompress", path, err)
		}
		r.Reader = gzr
		r.Compression = Gzip
		r.decompressor = gzr
	default:
		for _, u := range unsupportedMagic {
			if bytes.HasPrefix(head, u.magic) {
				f.Close()
				return nil, scmlerrors.NewUnsupported("compression", u.name+" input "+path)
			}
		}
	}
	return r, nil
}

// Close closes the decompressor, if any, and the file.
func (r *Reader) Close() error {
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// ReadAll reads the whole decompressed input of path.
func ReadAll(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, scmlerrors.NewIO("read", path, err)
	}
	return data, nil
}
