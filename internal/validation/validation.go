// Package validation checks names that come from the command line or from
// SCML markup before they are turned into file paths: translation names,
// image file names and input paths.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// Limits on user-supplied names (CWE-400).
const (
	// MaxNameLength is the maximum length of a translation or image name.
	MaxNameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidName      = errors.New("invalid name")
	ErrPathTooLong      = errors.New("path too long")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

func invalid(field, value string, err error) error {
	return &scmlerrors.ValidationError{Field: field, Value: value, Message: err.Error(), Err: err}
}

// checkName applies the rules shared by every plain file or directory name.
func checkName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidName)
		}
	}
	return nil
}

// TranslationName checks a translation name such as "ESV". It names both a
// directory under the inputs directory and the SCML file inside it.
func TranslationName(name string) error {
	if err := checkName(name); err != nil {
		return invalid("translation", name, err)
	}
	if strings.HasPrefix(name, "-") {
		return invalid("translation", name, fmt.Errorf("%w: cannot start with hyphen", ErrInvalidName))
	}
	return nil
}

// ImageName checks an image file name taken from an <img src> attribute.
func ImageName(name string) error {
	if err := checkName(name); err != nil {
		return invalid("image", name, err)
	}
	return nil
}

// ResolveUnder joins name onto baseDir and fails if the result would
// escape baseDir.
func ResolveUnder(baseDir, name string) (string, error) {
	if name == "" {
		return "", invalid("path", name, ErrEmptyPath)
	}
	if len(name) > MaxPathLength {
		return "", invalid("path", name, ErrPathTooLong)
	}

	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) {
		return "", invalid("path", name, fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal))
	}

	full := filepath.Join(baseDir, clean)
	rel, err := filepath.Rel(filepath.Clean(baseDir), full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", invalid("path", name, ErrPathTraversal)
	}
	return full, nil
}

// InputPath checks a path given on the command line.
func InputPath(path string) error {
	if path == "" {
		return invalid("path", path, ErrEmptyPath)
	}
	if len(path) > MaxPathLength {
		return invalid("path", path, ErrPathTooLong)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return invalid("path", path, fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter))
		}
	}
	return nil
}

// ImageType is an image format detected from file content.
type ImageType string

// Image types.
const (
	ImageJPEG    ImageType = "jpeg"
	ImagePNG     ImageType = "png"
	ImageGIF     ImageType = "gif"
	ImageWebP    ImageType = "webp"
	ImageSVG     ImageType = "svg"
	ImageUnknown ImageType = "unknown"
)

// DetectImage reads the start of r and identifies the image format. Files
// naming themselves .svg are checked for an <svg element instead of magic
// bytes.
func DetectImage(r io.Reader, name string) (ImageType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ImageUnknown, scmlerrors.NewIO("read", name, err)
	}
	buf = buf[:n]

	if t := detectFromMagic(buf); t != ImageUnknown {
		return t, nil
	}
	if strings.EqualFold(filepath.Ext(name), ".svg") && bytes.Contains(buf, []byte("<svg")) {
		return ImageSVG, nil
	}
	return ImageUnknown, nil
}

func detectFromMagic(buf []byte) ImageType {
	switch {
	case bytes.HasPrefix(buf, []byte{0xFF, 0xD8, 0xFF}):
		return ImageJPEG
	case bytes.HasPrefix(buf, []byte("\x89PNG\r\n\x1a\n")):
		return ImagePNG
	case bytes.HasPrefix(buf, []byte("GIF87a")), bytes.HasPrefix(buf, []byte("GIF89a")):
		return ImageGIF
	case len(buf) >= 12 && bytes.Equal(buf[:4], []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("WEBP")):
		return ImageWebP
	}
	return ImageUnknown
}
