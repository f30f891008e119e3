// Package manifest records what a conversion run wrote, with SHA-256 and
// BLAKE3 hashes for every file.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/internal/output"
)

// Version is the current manifest format version.
const Version = "1.0.0"

// FileName is the manifest's name inside an output directory.
const FileName = "manifest.json"

// Manifest describes one conversion run (manifest.json).
type Manifest struct {
	ManifestVersion string       `json:"manifest_version"`
	CreatedAt       string       `json:"created_at"`
	RunID           string       `json:"run_id"`
	Tool            ToolInfo     `json:"tool"`
	Input           *FileRecord  `json:"input,omitempty"`
	Files           []FileRecord `json:"files"`
	Stats           Stats        `json:"stats"`
}

// ToolInfo describes the tool that produced the run.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FileRecord describes one file. Output paths are relative to the
// manifest's directory; the input path is kept as given.
type FileRecord struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256"`
	BLAKE3    string `json:"blake3"`
	SizeBytes int64  `json:"size_bytes"`
}

// Stats are the run's record counts.
type Stats struct {
	Books     int            `json:"books"`
	Notes     int            `json:"notes"`
	Resources int            `json:"resources"`
	Images    int            `json:"images,omitempty"`
	Skipped   map[string]int `json:"skipped,omitempty"`
	Salvaged  bool           `json:"salvaged,omitempty"`
}

// New creates an empty manifest stamped with the current time.
func New(runID, toolVersion string) *Manifest {
	return &Manifest{
		ManifestVersion: Version,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		RunID:           runID,
		Tool: ToolInfo{
			Name:    "scml",
			Version: toolVersion,
		},
		Files: []FileRecord{},
	}
}

// HashFile hashes the file at path in a single read.
func HashFile(path string) (FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileRecord{}, scmlerrors.NewIO("open", path, err)
	}
	defer f.Close()

	s := sha256.New()
	b := blake3.New()
	n, err := io.Copy(io.MultiWriter(s, b), f)
	if err != nil {
		return FileRecord{}, scmlerrors.NewIO("hash", path, err)
	}
	return FileRecord{
		Path:      path,
		SHA256:    hex.EncodeToString(s.Sum(nil)),
		BLAKE3:    hex.EncodeToString(b.Sum(nil)),
		SizeBytes: n,
	}, nil
}

// SetInput records the hashes of the input file.
func (m *Manifest) SetInput(path string) error {
	rec, err := HashFile(path)
	if err != nil {
		return err
	}
	m.Input = &rec
	return nil
}

// AddFiles hashes each path and records it relative to base.
func (m *Manifest) AddFiles(base string, paths ...string) error {
	for _, p := range paths {
		rec, err := HashFile(p)
		if err != nil {
			return err
		}
		if rel, err := filepath.Rel(base, p); err == nil {
			rec.Path = filepath.ToSlash(rel)
		}
		m.Files = append(m.Files, rec)
	}
	return nil
}

// Write stores the manifest at path.
func (m *Manifest) Write(path string) error {
	return output.WriteJSON(path, m)
}

// Load reads a manifest written by Write.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &scmlerrors.NotFoundError{Resource: "manifest", ID: path, Err: err}
		}
		return nil, scmlerrors.NewIO("read", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		pe := scmlerrors.NewParse("JSON", path, err.Error())
		pe.Err = err
		return nil, pe
	}
	return &m, nil
}

// Verify rehashes every recorded file under base and reports the first
// mismatch.
func (m *Manifest) Verify(base string) error {
	for _, want := range m.Files {
		got, err := HashFile(filepath.Join(base, filepath.FromSlash(want.Path)))
		if err != nil {
			return err
		}
		if got.SHA256 != want.SHA256 || got.BLAKE3 != want.BLAKE3 {
			return fmt.Errorf("%s: hash mismatch (sha256 %s, want %s)", want.Path, got.SHA256, want.SHA256)
		}
	}
	return nil
}
