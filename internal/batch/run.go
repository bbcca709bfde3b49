// Package batch checks many files from disk in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"writegood/internal/analysis"
	"writegood/internal/decor"
	"writegood/internal/source"
)

// Enablement answers whether a file should be checked.
type Enablement interface {
	IsEnabled(identity string) bool
}

// Request describes one batch run.
type Request struct {
	Files    []string
	Jobs     int
	All      bool
	Analyzer analysis.Analyzer
	Checks   analysis.Checks
	// Enablement is consulted with Identity(file) unless All is set; a nil
	// Identity uses the path verbatim.
	Enablement Enablement
	Identity   func(path string) string
	Progress   ProgressSink
	Logger     *slog.Logger
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	File     *source.File
	Findings []decor.Resolved
	Entries  []decor.Entry
	Skipped  bool
	Err      error
	Elapsed  time.Duration
}

// Result collects every file in input order.
type Result struct {
	Files   []FileResult
	Elapsed time.Duration
}

// FindingCount sums findings across files.
func (r Result) FindingCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Findings)
	}
	return n
}

// Errors returns the per-file failures joined into one error.
func (r Result) Errors() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Run analyzes req.Files. Per-file failures are recorded in the result;
// the returned error is only set when ctx is canceled.
func Run(ctx context.Context, req *Request) (Result, error) {
	if req == nil {
		return Result{}, fmt.Errorf("missing batch request")
	}
	if req.Analyzer == nil {
		return Result{}, fmt.Errorf("missing analyzer")
	}
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checks := req.Checks
	if checks == nil {
		checks = analysis.DefaultChecks()
	}
	identity := req.Identity
	if identity == nil {
		identity = func(path string) string { return path }
	}
	start := time.Now()
	results := make([]FileResult, len(req.Files))
	if len(req.Files) == 0 {
		return Result{Files: results}, nil
	}
	for _, path := range req.Files {
		emit(req.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Files)))
	for i, path := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(gctx, req, path, identity(path), checks, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Files: results, Elapsed: time.Since(start)}, err
	}
	return Result{Files: results, Elapsed: time.Since(start)}, ctx.Err()
}

func checkFile(ctx context.Context, req *Request, path, identity string, checks analysis.Checks, logger *slog.Logger) FileResult {
	begin := time.Now()
	res := FileResult{Path: path}
	finish := func(stage Stage, status Status) FileResult {
		res.Elapsed = time.Since(begin)
		emit(req.Progress, Event{
			File:     path,
			Stage:    stage,
			Status:   status,
			Findings: len(res.Findings),
			Err:      res.Err,
			Elapsed:  res.Elapsed,
		})
		return res
	}

	if !req.All && req.Enablement != nil && !req.Enablement.IsEnabled(identity) {
		logger.Debug("checks disabled, skipping", slog.String("path", path))
		res.Skipped = true
		return finish(StageLoad, StatusSkipped)
	}

	emit(req.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	file, err := source.Load(path)
	if err != nil {
		res.Err = err
		return finish(StageLoad, StatusError)
	}
	res.File = file

	emit(req.Progress, Event{File: path, Stage: StageAnalyze, Status: StatusWorking})
	resolved, err := decor.Analyze(ctx, file, req.Analyzer, checks)
	if err != nil {
		res.Err = err
		return finish(StageAnalyze, StatusError)
	}
	res.Findings = resolved
	res.Entries = decor.Build(resolved)
	return finish(StageAnalyze, StatusDone)
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
