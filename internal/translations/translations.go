// Package translations converts translations laid out as
// <inputs>/<name>/<name>.scml with images in <inputs>/<name>/<name>_images,
// writing <output>/<name>/{notes,resources}.json and <output>/<name>/images.
package translations

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	scmlerrors "github.com/gerdums/study-notes/core/errors"
	"github.com/gerdums/study-notes/internal/convert"
	"github.com/gerdums/study-notes/internal/logging"
	"github.com/gerdums/study-notes/internal/pipeline"
	"github.com/gerdums/study-notes/internal/validation"
)

// Layout is where one translation's files live.
type Layout struct {
	Name         string
	SCML         string
	ImagesDir    string
	OutDir       string
	OutImagesDir string
}

// LayoutFor computes the layout of translation name. A compressed
// <name>.scml.xz is used when the plain file is absent.
func LayoutFor(inputsDir, outputDir, name string) (Layout, error) {
	if err := validation.TranslationName(name); err != nil {
		return Layout{}, err
	}
	dir := filepath.Join(inputsDir, name)
	l := Layout{
		Name:         name,
		SCML:         filepath.Join(dir, name+".scml"),
		ImagesDir:    filepath.Join(dir, name+"_images"),
		OutDir:       filepath.Join(outputDir, name),
		OutImagesDir: filepath.Join(outputDir, name, "images"),
	}
	if !exists(l.SCML) && exists(l.SCML+".xz") {
		l.SCML += ".xz"
	}
	return l, nil
}

// Discover lists the translations under inputsDir, sorted by name.
func Discover(inputsDir string) ([]string, error) {
	entries, err := os.ReadDir(inputsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &scmlerrors.NotFoundError{Resource: "inputs directory", ID: inputsDir, Err: err}
		}
		return nil, scmlerrors.NewIO("read directory", inputsDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || validation.TranslationName(e.Name()) != nil {
			continue
		}
		l, _ := LayoutFor(inputsDir, "", e.Name())
		if exists(l.SCML) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, scmlerrors.NewNotFound("scml files", inputsDir)
	}
	sort.Strings(names)
	return names, nil
}

// Options configures Process.
type Options struct {
	InputsDir string
	OutputDir string
	// OnlyReferencedImages copies just the sidebar images named by
	// resources instead of the whole image directory.
	OnlyReferencedImages bool
	// StrictImages fails the translation when the image directory or a
	// referenced image is missing.
	StrictImages bool
	// Convert supplies the common conversion settings. Input and
	// Output.Dir are filled in per translation.
	Convert convert.Options
}

// Report is the outcome of one translation.
type Report struct {
	Translation   string
	Notes         int
	Resources     int
	ImagesCopied  int
	ImagesMissing int
	Files         []string
}

// Process converts one translation.
func Process(ctx context.Context, name string, opts Options) (*Report, error) {
	l, err := LayoutFor(opts.InputsDir, opts.OutputDir, name)
	if err != nil {
		return nil, err
	}
	if !exists(l.SCML) {
		return nil, scmlerrors.NewNotFound("scml file", l.SCML)
	}
	logging.InfoContext(ctx, "translation_started", "translation", name, "scml", l.SCML,
		"images", l.ImagesDir, "output", l.OutDir)

	rep := &Report{Translation: name}
	copier := &imageCopier{layout: l, strict: opts.StrictImages}

	co := opts.Convert
	co.Input = l.SCML
	co.Label = name
	co.Output.Dir = l.OutDir
	co.AfterWrite = func(res *pipeline.Result) ([]string, error) {
		if err := os.MkdirAll(l.OutImagesDir, 0o755); err != nil {
			return nil, scmlerrors.NewIO("create directory", l.OutImagesDir, err)
		}
		if opts.OnlyReferencedImages {
			return copier.referenced(ctx, res.Images)
		}
		return copier.all(ctx)
	}

	report, err := convert.Run(ctx, co)
	if report != nil {
		rep.Files = report.Files
		rep.Notes = report.Result.Stats.Notes
		rep.Resources = report.Result.Stats.Resources
	}
	rep.ImagesCopied, rep.ImagesMissing = copier.copied, copier.missing
	if err != nil {
		return rep, scmlerrors.Wrapf(err, "translation %s", name)
	}
	logging.InfoContext(ctx, "translation_finished", "translation", name,
		"notes", rep.Notes, "resources", rep.Resources,
		"images_copied", rep.ImagesCopied, "images_missing", rep.ImagesMissing)
	return rep, nil
}

// ProcessAll converts each named translation, continuing past failures.
// The returned error reports how many failed.
func ProcessAll(ctx context.Context, names []string, opts Options) ([]*Report, error) {
	var (
		reports []*Report
		failed  int
		lastErr error
	)
	for _, name := range names {
		rep, err := Process(ctx, name, opts)
		if err != nil {
			failed++
			lastErr = err
			logging.ErrorContext(ctx, "translation_failed", "translation", name, "error", err)
			continue
		}
		reports = append(reports, rep)
	}
	logging.InfoContext(ctx, "translations_processed", "succeeded", len(names)-failed, "total", len(names))
	if failed > 0 {
		return reports, scmlerrors.Wrapf(lastErr, "%d of %d translations failed", failed, len(names))
	}
	return reports, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
