package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docfix/docfix/internal/assets"
	"github.com/docfix/docfix/internal/config"
	"github.com/docfix/docfix/internal/errors"
	"github.com/docfix/docfix/internal/fixers"
	"github.com/docfix/docfix/internal/mdpages"
)

// Runner fans the orchestrator out over every matching page in the input
// directory using a bounded worker pool. A fatal error cancels the run:
// in-flight documents finish or discard, queued documents never start.
type Runner struct {
	cfg  *config.Config
	cx   *fixers.Context
	log  *slog.Logger
	orch *Orchestrator

	include []*config.Pattern
	exclude []*config.Pattern
}

// NewRunner builds a runner from validated configuration.
func NewRunner(cfg *config.Config, cx *fixers.Context, log *slog.Logger) (*Runner, error) {
	include, err := config.CompilePatterns(cfg.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := config.CompilePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:     cfg,
		cx:      cx,
		log:     log,
		orch:    NewOrchestrator(cx, nil),
		include: include,
		exclude: exclude,
	}, nil
}

// Run processes every page and returns the aggregated report. The
// returned error is non-nil only for run-level failures (bad input
// directory, fatal fixer); per-document failures are reported in the
// Report and leave the other documents untouched.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.NewString()}

	if err := r.prepareOutput(); err != nil {
		return report, err
	}

	files, err := r.collectFiles()
	if err != nil {
		return report, err
	}
	if r.cfg.Changelog != "" {
		page, err := mdpages.RenderChangelog(r.cfg.Changelog, r.cfg.Output)
		if err != nil {
			return report, err
		}
		files = append(files, page)
		sort.Strings(files)
	}
	report.Total = len(files)
	r.log.Info("processing pages",
		slog.String("run_id", report.RunID),
		slog.Int("pages", len(files)),
		slog.Int("threads", r.cfg.EffectiveThreads(len(files))))

	results := r.processAll(ctx, files)

	for i, res := range results {
		switch {
		case res.skipped:
			report.Skipped++
		case res.err != nil:
			report.Failures = append(report.Failures, Failure{Path: files[i], Err: res.err})
			pageFailures.WithLabelValues(string(errors.GetCategory(res.err))).Inc()
			if errors.IsFatal(res.err) {
				report.Fatal = res.err
			}
		default:
			report.Processed++
			if res.changed {
				report.Changed++
			}
		}
	}
	report.Warnings = r.cx.Warnings()
	report.Elapsed = time.Since(started)

	if report.Fatal != nil {
		return report, report.Fatal
	}
	return report, nil
}

type pageResult struct {
	changed bool
	skipped bool
	err     error
}

// processAll runs each file through the orchestrator on a bounded pool.
// Results keep file order. The first fatal error cancels the pool:
// workers check the context before starting a document, so queued pages
// are skipped rather than half-written.
func (r *Runner) processAll(ctx context.Context, files []string) []pageResult {
	if len(files) == 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := r.cfg.EffectiveThreads(len(files))
	sem := make(chan struct{}, concurrency)
	results := make([]pageResult, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[i] = pageResult{skipped: true}
				return
			}

			started := time.Now()
			changed, err := r.orch.ProcessFile(file)
			pageDuration.Observe(time.Since(started).Seconds())
			pagesProcessed.Inc()
			if changed {
				pagesChanged.Inc()
			}
			results[i] = pageResult{changed: changed, err: err}

			if err != nil {
				r.log.Error("page failed",
					slog.String("path", file),
					slog.Any("error", err))
				if errors.IsFatal(err) {
					cancel()
				}
			} else {
				r.log.Debug("page done",
					slog.String("path", file),
					slog.Bool("changed", changed),
					slog.Duration("elapsed", time.Since(started)))
			}
		}(i, file)
	}
	wg.Wait()
	return results
}

// collectFiles walks the input directory for processable pages, applies
// the include/exclude filters, and mirrors them into the output
// directory when it differs from the input.
func (r *Runner) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.cfg.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == assets.GeneratedDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !r.wantFile(path) {
			return nil
		}
		out, err := r.mirror(path)
		if err != nil {
			return err
		}
		files = append(files, out)
		return nil
	})
	if err != nil {
		return nil, errors.IOError(err, "scanning input directory").WithContext("input", r.cfg.Input)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) wantFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		if !r.cfg.HTML {
			return false
		}
	case ".xml":
		if !r.cfg.XML {
			return false
		}
	default:
		return false
	}
	if !config.MatchAny(r.include, path, true) {
		return false
	}
	return !config.MatchAny(r.exclude, path, false)
}

// mirror copies a page into the output directory when output differs
// from input, returning the path the orchestrator should process.
func (r *Runner) mirror(path string) (string, error) {
	if r.cfg.Output == r.cfg.Input {
		return path, nil
	}
	rel, err := filepath.Rel(r.cfg.Input, path)
	if err != nil {
		return "", errors.IOError(err, "resolving page path").WithContext("path", path)
	}
	dst := filepath.Join(r.cfg.Output, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.IOError(err, "creating output directory").WithContext("path", dst)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.IOError(err, "read page").WithContext("path", path)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", errors.IOError(err, "mirror page").WithContext("path", dst)
	}
	return dst, nil
}

func (r *Runner) prepareOutput() error {
	if err := os.MkdirAll(r.cfg.Output, 0o755); err != nil {
		return errors.IOError(err, "creating output directory").WithContext("path", r.cfg.Output)
	}
	if err := assets.InstallTheme(r.cfg.Output, r.cfg.Theme); err != nil {
		return errors.IOError(err, "installing theme assets")
	}
	if r.cfg.Emoji {
		dir := filepath.Join(r.cfg.Output, assets.GeneratedDir)
		if err := r.cx.Emoji.WriteJSON(dir); err != nil {
			return errors.IOError(err, "writing emoji table")
		}
	}
	return nil
}
