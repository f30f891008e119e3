// Package convert runs a whole conversion: open the input, stream it
// through the pipeline, then write the JSON files and any optional exports.
package convert

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gerdums/study-notes/core/extract"
	"github.com/gerdums/study-notes/internal/export"
	"github.com/gerdums/study-notes/internal/logging"
	"github.com/gerdums/study-notes/internal/manifest"
	"github.com/gerdums/study-notes/internal/metrics"
	"github.com/gerdums/study-notes/internal/output"
	"github.com/gerdums/study-notes/internal/pipeline"
	"github.com/gerdums/study-notes/internal/search"
	"github.com/gerdums/study-notes/internal/source"
)

// Options configures Run.
type Options struct {
	// Input is the SCML file, optionally xz or gzip compressed.
	Input string
	// Label names the run in metrics, e.g. a translation. Defaults to the
	// input's base name.
	Label string

	Heuristics *extract.Heuristics
	NotesOnly  bool
	Salvage    bool
	Progress   bool

	// Output lays out the JSON files. Output.Dir is required.
	Output output.Options

	// SQLite, Index and MetricsFile name optional exports; empty skips them.
	SQLite      string
	Index       string
	MetricsFile string
	// Manifest writes manifest.json into Output.Dir.
	Manifest    bool
	ToolVersion string

	// AfterWrite runs once the JSON files exist and returns any further
	// files to list in the manifest.
	AfterWrite func(*pipeline.Result) ([]string, error)
}

// Report is the outcome of Run.
type Report struct {
	Result *pipeline.Result
	// Files lists everything written under Output.Dir, manifest last.
	Files []string
}

// Run converts opts.Input. Files written before a failure are still
// reported.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	in, err := source.Open(opts.Input)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	pipeline.LogInput(in.Path, in.Size, in.Compression)

	label := opts.Label
	if label == "" {
		label = filepath.Base(opts.Input)
	}
	rec := metrics.NewRecorder(label)

	res, err := pipeline.Run(ctx, in, pipeline.Options{
		Path:       opts.Input,
		Heuristics: opts.Heuristics,
		NotesOnly:  opts.NotesOnly,
		Salvage:    opts.Salvage,
		Progress:   opts.Progress,
		Observer:   rec,
	})
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, res.RunID)

	out := opts.Output
	out.NotesOnly = out.NotesOnly || opts.NotesOnly
	report := &Report{Result: res}
	files, err := output.Write(res.Notes, res.Resources, out)
	report.Files = append(report.Files, files...)
	if err != nil {
		return report, err
	}

	if opts.AfterWrite != nil {
		extra, err := opts.AfterWrite(res)
		report.Files = append(report.Files, extra...)
		if err != nil {
			return report, err
		}
	}

	if opts.SQLite != "" {
		if err := export.SQLite(ctx, opts.SQLite, res.RunID, res.Notes, res.Resources); err != nil {
			return report, err
		}
		counts, err := export.Count(ctx, opts.SQLite)
		if err != nil {
			return report, err
		}
		logging.InfoContext(ctx, "sqlite_exported", "path", opts.SQLite,
			"notes", counts.Notes, "resources", counts.Resources)
	}
	if opts.Index != "" {
		if err := buildIndex(opts.Index, res); err != nil {
			return report, err
		}
	}
	if opts.MetricsFile != "" {
		rec.ObserveDuration(time.Since(start))
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			return report, err
		}
	}
	if opts.Manifest {
		path, err := writeManifest(opts, res, report.Files)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, path)
	}
	return report, nil
}

func buildIndex(path string, res *pipeline.Result) error {
	idx, err := search.Create(path)
	if err != nil {
		return err
	}
	n, err := idx.Add(res.Notes, res.Resources)
	if cerr := idx.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logging.Info("index_built", "path", path, "documents", n)
	return nil
}

func writeManifest(opts Options, res *pipeline.Result, files []string) (string, error) {
	m := manifest.New(res.RunID, opts.ToolVersion)
	if err := m.SetInput(opts.Input); err != nil {
		return "", err
	}
	if err := m.AddFiles(opts.Output.Dir, files...); err != nil {
		return "", err
	}
	m.Stats = manifest.Stats{
		Books:     res.Stats.Books,
		Notes:     res.Stats.Notes,
		Resources: res.Stats.Resources,
		Images:    len(res.Images),
		Salvaged:  res.Stats.Salvaged,
	}
	if len(res.Stats.Skipped) > 0 {
		m.Stats.Skipped = make(map[string]int, len(res.Stats.Skipped))
		for why, n := range res.Stats.Skipped {
			m.Stats.Skipped[string(why)] = n
		}
	}

	path := filepath.Join(opts.Output.Dir, manifest.FileName)
	return path, m.Write(path)
}
