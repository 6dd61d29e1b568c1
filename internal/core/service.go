package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/logging"
)

// RunStore persists run history. Implementations must be safe for
// concurrent use.
type RunStore interface {
	Record(ctx context.Context, rec RunRecord) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// ReconcileInput is one target/source pair to reconcile.
type ReconcileInput struct {
	TargetName string
	SourceName string
	Target     Table
	Source     Table
}

// MergeInput is a set of exports to stack into one table.
type MergeInput struct {
	Files       []NamedTable
	AddFileName bool
}

// RunResult is a finished run kept in memory until it expires.
type RunResult struct {
	Record RunRecord
	Table  Table
	Report *Report // Set for merges only
}

type cachedResult struct {
	result  *RunResult
	expires time.Time
}

// Service runs reconciliations and merges, records them in history and
// keeps their results downloadable for a while.
type Service struct {
	layout      Layout
	mergeOpts   MergeOptions
	analyzeOpts AnalyzeOptions
	sheetName   string
	timeout     time.Duration
	listLimit   int
	maxFiles    int

	limiter *RunLimiter
	store   RunStore
	now     func() time.Time

	mu      sync.RWMutex
	results map[string]cachedResult
	ttl     time.Duration
}

// NewService creates a Service from the loaded configuration.
func NewService(store RunStore, cfg *config.Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("run store is required")
	}
	layout := LayoutFromConfig(cfg.Layout)
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		layout: layout,
		mergeOpts: MergeOptions{
			FirstSkip: cfg.Layout.MergeFirstSkip,
			RestSkip:  cfg.Layout.MergeRestSkip,
		},
		analyzeOpts: DefaultAnalyzeOptions(),
		sheetName:   cfg.Layout.SheetName,
		timeout:     cfg.Upload.Timeout,
		listLimit:   cfg.History.ListLimit,
		maxFiles:    cfg.Upload.MaxFiles,
		limiter:     NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		store:       store,
		now:         time.Now,
		results:     make(map[string]cachedResult),
		ttl:         cfg.Upload.ResultTTL,
	}, nil
}

// LayoutFromConfig converts the env-driven layout settings.
func LayoutFromConfig(c config.LayoutConfig) Layout {
	return Layout{
		TargetIDColumn: c.TargetIDColumn,
		TargetStartRow: c.TargetStartRow,
		TargetIDPrefix: c.TargetIDPrefix,
		Coerce: Window{
			StartRow: c.CoerceStartRow,
			ColStart: c.CoerceColStart,
			ColEnd:   c.CoerceColEnd,
		},
		SourcePrimaryColumn:   c.SourcePrimaryColumn,
		SourceSecondaryColumn: c.SourceSecondaryColumn,
		SourceStartRow:        c.SourceStartRow,
		Row: RowTemplate{
			Width:            c.RowWidth,
			TagColumn:        c.TagColumn,
			Tag:              c.Tag,
			ReferenceColumn:  c.ReferenceColumn,
			IdentifierColumn: c.IdentifierColumn,
			CarryColumns:     append([]int(nil), c.CarryColumns...),
			SecondaryColumn:  c.SecondaryColumn,
			ZeroStart:        c.ZeroStart,
			ZeroEnd:          c.ZeroEnd,
			TrailerColumn:    c.TrailerColumn,
			TrailerTag:       c.TrailerTag,
		},
	}
}

// Layout returns the offsets used by Reconcile.
func (s *Service) Layout() Layout {
	return s.layout
}

// SheetName returns the sheet name used when results are written.
func (s *Service) SheetName() string {
	return s.sheetName
}

// Reconcile inserts the source rows missing from the target and returns
// the assembled table. The run is recorded in history whether it succeeds
// or not.
func (s *Service) Reconcile(ctx context.Context, in ReconcileInput) (*RunResult, error) {
	rec := RunRecord{
		Kind:       RunReconcile,
		TargetName: in.TargetName,
		SourceName: in.SourceName,
	}

	return s.execute(ctx, rec, func(ctx context.Context) (*RunResult, error) {
		res, err := Run(in.Target, in.Source, s.layout)
		if err != nil {
			return nil, err
		}
		return &RunResult{Table: res.Table, Record: RunRecord{Summary: res.Summary}}, nil
	})
}

// Merge stacks the files into one table and analyzes it. The files are
// merged in the given order.
func (s *Service) Merge(ctx context.Context, in MergeInput) (*RunResult, error) {
	names := make([]string, len(in.Files))
	for i, f := range in.Files {
		names[i] = f.Name
	}
	rec := RunRecord{Kind: RunMerge, Files: names}

	return s.execute(ctx, rec, func(ctx context.Context) (*RunResult, error) {
		if len(in.Files) == 0 {
			return nil, ErrNoFiles
		}
		if s.maxFiles > 0 && len(in.Files) > s.maxFiles {
			return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(in.Files), s.maxFiles)
		}
		opts := s.mergeOpts
		opts.AddFileName = in.AddFileName

		merged := MergeTables(in.Files, opts)
		report := Analyze(merged, s.analyzeOpts)
		return &RunResult{
			Table:  merged,
			Report: &report,
			Record: RunRecord{Summary: Summary{FinalRows: len(merged)}},
		}, nil
	})
}

// execute wraps fn with the run limiter, timeout, logging and history.
func (s *Service) execute(ctx context.Context, rec RunRecord, fn func(context.Context) (*RunResult, error)) (*RunResult, error) {
	rec.ID = uuid.New().String()
	rec.ClientIP = GetIPAddressFromContext(ctx)
	ctx = logging.WithRun(ctx, rec.ID, string(rec.Kind))
	logger := logging.FromContext(ctx)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("run rejected", "error", err, "limiter", s.limiter.Status())
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	rec.CreatedAt = start.UTC()
	logger.Info("run started",
		"target", rec.TargetName,
		"source", rec.SourceName,
		"files", len(rec.Files),
	)

	res, err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	rec.DurationMs = s.now().Sub(start).Milliseconds()

	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		s.record(ctx, rec)
		logger.Error("run failed", "error", err, "duration_ms", rec.DurationMs)
		return nil, fmt.Errorf("%s run: %w", rec.Kind, err)
	}

	rec.Status = StatusSucceeded
	rec.Summary = res.Record.Summary
	res.Record = rec
	s.record(ctx, rec)
	s.cache(res)

	logger.Info("run completed",
		"candidates", rec.Summary.Candidates,
		"inserted", rec.Summary.Inserted,
		"skipped", rec.Summary.Skipped,
		"final_rows", rec.Summary.FinalRows,
		"duration_ms", rec.DurationMs,
	)
	return res, nil
}

// record stores rec in history. A history failure is logged and never
// fails the run.
func (s *Service) record(ctx context.Context, rec RunRecord) {
	if err := s.store.Record(context.WithoutCancel(ctx), rec); err != nil {
		logging.FromContext(ctx).Error("record run history", "error", err)
	}
}

func (s *Service) cache(res *RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, c := range s.results {
		if now.After(c.expires) {
			delete(s.results, id)
		}
	}
	s.results[res.Record.ID] = cachedResult{result: res, expires: now.Add(s.ttl)}
}

// Result returns a finished run that has not expired yet.
func (s *Service) Result(runID string) (*RunResult, error) {
	s.mu.RLock()
	c, ok := s.results[runID]
	s.mu.RUnlock()

	if !ok || s.now().After(c.expires) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return c.result, nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context) ([]RunRecord, error) {
	runs, err := s.store.List(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}
	return runs, nil
}

// LimiterStatus returns the current run limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight runs finish or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
