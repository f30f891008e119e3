package pipeline

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gerdums/study-notes/internal/logging"
)

// logProgress reports the book that just started with the running totals
// and a finish estimate extrapolated from the books done so far.
func (p *processor) logProgress() {
	elapsed := time.Since(p.start)
	args := []any{
		"notes", len(p.notes),
		"resources", len(p.resources),
		"elapsed", elapsed.Round(time.Second).String(),
	}
	if done := p.books - 1; done > 0 && p.books <= p.opts.TotalBooks {
		remaining := time.Duration(float64(elapsed) / float64(done) * float64(p.opts.TotalBooks-done))
		args = append(args, "eta", humanize.Time(time.Now().Add(remaining)))
	}
	logging.BookStarted(p.ctx, p.book.Name, p.books, p.opts.TotalBooks, args...)
}

// LogInput reports the input about to be processed.
func LogInput(path string, size int64, compression string) {
	args := []any{"path", path, "size", humanize.Bytes(uint64(size))}
	if compression != "" {
		args = append(args, "compression", compression)
	}
	logging.Info("input_opened", args...)
}
