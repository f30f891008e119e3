package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "scml file", ID: "inputs/ESV/ESV.scml"},
			wantMsg:  "scml file not found: inputs/ESV/ESV.scml",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "image directory"},
			wantMsg:  "image directory not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		err := &NotFoundError{Resource: "scml file", ID: "x.scml", Err: fs.ErrNotExist}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("errors.Is(err, fs.ErrNotExist) = false")
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     NewValidation("translation", "../ESV", "must be a plain directory name"),
			wantMsg: "validation failed for translation: must be a plain directory name",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "either --translation or --all is required"},
			wantMsg: "validation failed: either --translation or --all is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("errors.Is(err, ErrInvalidInput) = false")
			}
		})
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("disk full")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{"with path", NewIO("write", "out/notes.json", underlying), "failed to write out/notes.json: disk full"},
		{"without path", NewIO("flush", "", underlying), "failed to flush: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if tt.err.Unwrap() != underlying {
				t.Errorf("Unwrap() did not return underlying error")
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "path and line",
			err:     &ParseError{Format: "SCML", Path: "bible.scml", Line: 12, Message: "unexpected EOF"},
			wantMsg: "failed to parse SCML at bible.scml:12: unexpected EOF",
		},
		{
			name:    "line only",
			err:     &ParseError{Format: "SCML", Line: 3, Message: "bad token"},
			wantMsg: "failed to parse SCML at line 3: bad token",
		},
		{
			name:    "path only",
			err:     NewParse("YAML", "heuristics.yaml", "unknown field"),
			wantMsg: "failed to parse YAML at heuristics.yaml: unknown field",
		},
		{
			name:    "bare",
			err:     NewParse("SCML", "", "empty input"),
			wantMsg: "failed to parse SCML: empty input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrMalformed) {
				t.Errorf("errors.Is(err, ErrMalformed) = false")
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("compression", "bzip2 input")
	if got, want := err.Error(), "unsupported compression: bzip2 input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrUnsupported) {
		t.Errorf("Is(err, ErrUnsupported) = false")
	}
	if got, want := (&UnsupportedError{Feature: "xz"}).Error(), "unsupported xz"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	base := NewNotFound("scml file", "a.scml")
	wrapped := Wrapf(base, "translation %s", "ESV")
	if got, want := wrapped.Error(), "translation ESV: scml file not found: a.scml"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}

	var nf *NotFoundError
	if !As(wrapped, &nf) || nf.ID != "a.scml" {
		t.Errorf("As() did not find NotFoundError")
	}
	if !Is(Wrap(base, "outer"), ErrNotFound) {
		t.Errorf("Is() through Wrap failed")
	}
}
