// Package fileutil copies image directories and writes output files.
package fileutil

import (
	"io"
	"os"
	"path/filepath"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
)

// CopyFile copies src to dst, creating dst's parent directories and
// keeping src's permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return scmlerrors.NewIO("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return scmlerrors.NewIO("stat", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return scmlerrors.NewIO("create directory", filepath.Dir(dst), err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return scmlerrors.NewIO("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return scmlerrors.NewIO("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return scmlerrors.NewIO("close", dst, err)
	}
	// OpenFile applies the umask; set the bits explicitly.
	return os.Chmod(dst, info.Mode().Perm())
}

// CopyDir copies the tree at src into dst. A src that is a regular file is
// copied with CopyFile.
func CopyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return scmlerrors.NewIO("stat", src, err)
	}
	if !info.IsDir() {
		return CopyFile(src, dst)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return scmlerrors.NewIO("create directory", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return scmlerrors.NewIO("read directory", src, err)
	}
	for _, e := range entries {
		s, d := filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())
		if e.IsDir() {
			err = CopyDir(s, d)
		} else {
			err = CopyFile(s, d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteAtomic writes a file through fn into a temporary file next to path
// and renames it into place, so readers never see a partial file.
func WriteAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scmlerrors.NewIO("create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return scmlerrors.NewIO("create", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return scmlerrors.NewIO("close", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return scmlerrors.NewIO("chmod", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return scmlerrors.NewIO("rename", path, err)
	}
	return nil
}
