package translations

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/internal/fileutil"
	"github.com/gerdums/study-notes/internal/logging"
	"github.com/gerdums/study-notes/internal/validation"
)

type imageCopier struct {
	layout  Layout
	strict  bool
	copied  int
	missing int
}

// all replaces the output image directory with a copy of the input one.
func (c *imageCopier) all(ctx context.Context) ([]string, error) {
	src, dst := c.layout.ImagesDir, c.layout.OutImagesDir
	if !exists(src) {
		return nil, c.missingDir(ctx)
	}
	if err := os.RemoveAll(dst); err != nil {
		return nil, scmlerrors.NewIO("remove", dst, err)
	}
	if err := fileutil.CopyDir(src, dst); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, scmlerrors.NewIO("walk", dst, err)
	}
	c.copied = len(files)
	logging.InfoContext(ctx, "images_copied", "translation", c.layout.Name, "count", c.copied)
	return files, nil
}

// referenced copies only the named images.
func (c *imageCopier) referenced(ctx context.Context, names []string) ([]string, error) {
	if !exists(c.layout.ImagesDir) {
		return nil, c.missingDir(ctx)
	}

	var files []string
	for _, name := range names {
		if err := validation.ImageName(name); err != nil {
			logging.WarnContext(ctx, "skipping image", "image", name, "error", err)
			continue
		}
		src, err := validation.ResolveUnder(c.layout.ImagesDir, name)
		if err != nil {
			logging.WarnContext(ctx, "skipping image", "image", name, "error", err)
			continue
		}
		if !exists(src) {
			c.missing++
			if c.strict {
				return files, scmlerrors.NewNotFound("referenced image", src)
			}
			logging.WarnContext(ctx, "referenced image not found", "path", src)
			continue
		}
		c.checkType(ctx, src)

		dst := filepath.Join(c.layout.OutImagesDir, name)
		if err := fileutil.CopyFile(src, dst); err != nil {
			return files, err
		}
		files = append(files, dst)
		c.copied++
	}
	if c.missing > 0 {
		logging.WarnContext(ctx, "referenced images not found", "translation", c.layout.Name, "count", c.missing)
	}
	logging.InfoContext(ctx, "images_copied", "translation", c.layout.Name, "count", c.copied)
	return files, nil
}

func (c *imageCopier) missingDir(ctx context.Context) error {
	if c.strict {
		return scmlerrors.NewNotFound("image directory", c.layout.ImagesDir)
	}
	logging.WarnContext(ctx, "images directory not found", "path", c.layout.ImagesDir)
	return nil
}

// checkType logs files that do not look like images.
func (c *imageCopier) checkType(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if t, err := validation.DetectImage(f, path); err == nil && t == validation.ImageUnknown {
		logging.WarnContext(ctx, "file is not a recognized image", "path", path)
	}
}
