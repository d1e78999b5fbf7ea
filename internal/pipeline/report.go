package pipeline

import (
	"log/slog"
	"time"
)

// Failure records one document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Report aggregates the outcome of a run.
type Report struct {
	RunID     string
	Total     int
	Processed int
	Changed   int
	Skipped   int
	Warnings  int64
	Failures  []Failure
	Fatal     error
	Elapsed   time.Duration
}

// Failed reports whether the run should exit non-zero. werror promotes
// any warning to a failure.
func (r *Report) Failed(werror bool) bool {
	if r.Fatal != nil || len(r.Failures) > 0 {
		return true
	}
	return werror && r.Warnings > 0
}

// Log writes the run summary.
func (r *Report) Log(log *slog.Logger) {
	attrs := []any{
		slog.String("run_id", r.RunID),
		slog.Int("total", r.Total),
		slog.Int("processed", r.Processed),
		slog.Int("changed", r.Changed),
		slog.Int("failed", len(r.Failures)),
		slog.Int("skipped", r.Skipped),
		slog.Int64("warnings", r.Warnings),
		slog.Duration("elapsed", r.Elapsed),
	}
	if r.Fatal != nil || len(r.Failures) > 0 {
		log.Error("run finished with failures", attrs...)
		for _, f := range r.Failures {
			log.Error("failed page", slog.String("path", f.Path), slog.Any("error", f.Err))
		}
		return
	}
	log.Info("run finished", attrs...)
}
