// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires acquisition, metadata resolution, detection and
// classification into per-document processing and concurrent batch runs.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equitylab/positionality-engine/internal/classify"
	"github.com/equitylab/positionality-engine/internal/detect"
	"github.com/equitylab/positionality-engine/internal/metadata"
	"github.com/equitylab/positionality-engine/internal/pdftext"
	"github.com/equitylab/positionality-engine/pkg/types"
)

// ErrNoCredential reports AI classification enabled without an API key.
// Raised at construction so a misconfigured run fails before any
// document is touched.
var ErrNoCredential = errors.New("AI classification enabled but no API key configured")

// Engine runs the extraction pipeline.
type Engine struct {
	cfg        types.Config
	extractor  *pdftext.Extractor
	resolver   *metadata.Resolver
	detector   *detect.Detector
	classifier *classify.Classifier
}

// New builds an engine from configuration, constructing the AI backend
// when classification is enabled.
func New(cfg types.Config) (*Engine, error) {
	var backend classify.Backend
	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return nil, ErrNoCredential
		}
		b, err := classify.NewBackend(cfg.AI)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	return NewWithBackend(cfg, backend), nil
}

// NewWithBackend builds an engine around an explicit classification
// backend (nil for lexical mode). Used by tests and New.
func NewWithBackend(cfg types.Config, backend classify.Backend) *Engine {
	return &Engine{
		cfg:        cfg,
		extractor:  pdftext.New(cfg.Acquisition),
		resolver:   metadata.New(cfg.Metadata),
		detector:   detect.New(),
		classifier: classify.New(cfg.AI, backend),
	}
}

// Process runs the full pipeline over a single document. Stage failures
// downstream of acquisition degrade the record; only acquisition
// failures produce an error-status record.
func (e *Engine) Process(ctx context.Context, path string) types.ExtractionRecord {
	doc, err := e.extractor.Extract(ctx, path)
	if err != nil {
		zap.L().Warn("text acquisition failed",
			zap.String("path", path),
			zap.String("diagnostic", pdftext.Diagnostic(err)),
			zap.Error(err))
		return ErrorRecord(path, err)
	}

	meta := e.resolver.Resolve(ctx, doc)
	candidates := e.detector.Detect(doc)

	classified := make([]types.Match, 0, len(candidates))
	for _, c := range candidates {
		classified = append(classified, types.Match{
			Candidate:      c,
			Classification: e.classifier.Classify(ctx, c),
		})
	}

	rec := Aggregate(path, doc, meta, classified)
	zap.L().Debug("document processed",
		zap.String("path", path),
		zap.String("status", string(rec.Status)),
		zap.Int("candidates", rec.CandidateCount),
		zap.Int("matches", len(rec.Matches)))
	return rec
}

// Aggregate assembles the record for one document from stage outputs.
// Candidates the classifier rejected stay out of Matches but still count
// toward CandidateCount.
func Aggregate(path string, doc *types.Document, meta types.MetadataRecord, classified []types.Match) types.ExtractionRecord {
	rec := types.ExtractionRecord{
		Path:           path,
		FileName:       filepath.Base(path),
		PageCount:      doc.PageCount,
		Metadata:       meta,
		CandidateCount: len(classified),
		ProcessedAt:    time.Now().UTC(),
	}
	for _, m := range classified {
		if m.Match {
			rec.Matches = append(rec.Matches, m)
		}
	}
	if len(rec.Matches) > 0 {
		rec.Status = types.StatusOK
	} else {
		rec.Status = types.StatusNoMatch
	}
	return rec
}

// ErrorRecord builds the record for a document whose text could not be
// acquired.
func ErrorRecord(path string, err error) types.ExtractionRecord {
	return types.ExtractionRecord{
		Path:        path,
		FileName:    filepath.Base(path),
		Status:      types.StatusError,
		Diagnostic:  pdftext.Diagnostic(err),
		ProcessedAt: time.Now().UTC(),
	}
}

// Progress reports one finished document during a batch run.
type Progress struct {
	Done   int
	Total  int
	Record types.ExtractionRecord
}

// RunSummary is the outcome of a batch run.
type RunSummary struct {
	RunID   string
	Records []types.ExtractionRecord
	Found   int
	NoMatch int
	Failed  int
	Elapsed time.Duration
}

// Total returns the number of documents processed.
func (s RunSummary) Total() int {
	return s.Found + s.NoMatch + s.Failed
}

// HasFailures reports whether any document failed.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

// Run processes paths concurrently with a bounded worker pool. Results
// keep input order. Individual document failures are recorded, not
// propagated; the only error Run returns is cancellation, and then the
// summary still carries every record finished before the cut.
func (e *Engine) Run(ctx context.Context, paths []string, onProgress func(Progress)) (RunSummary, error) {
	runID := uuid.NewString()
	start := time.Now()

	workers := e.cfg.Runtime.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	zap.L().Info("starting extraction run",
		zap.String("run_id", runID),
		zap.Int("documents", len(paths)),
		zap.Int("workers", workers),
		zap.Bool("ai", e.cfg.AI.Enabled))

	records := make([]types.ExtractionRecord, len(paths))
	var done atomic.Int64
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			// Cancellation takes effect between documents, never inside one.
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := e.Process(gctx, path)
			records[i] = rec
			n := done.Add(1)
			if onProgress != nil {
				mu.Lock()
				onProgress(Progress{Done: int(n), Total: len(paths), Record: rec})
				mu.Unlock()
			}
			// Document failures live in the record; don't abort the batch.
			return nil
		})
	}
	runErr := g.Wait()

	summary := RunSummary{RunID: runID, Elapsed: time.Since(start)}
	for _, rec := range records {
		if rec.Path == "" {
			continue // skipped after cancellation
		}
		summary.Records = append(summary.Records, rec)
		switch rec.Status {
		case types.StatusOK:
			summary.Found++
		case types.StatusNoMatch:
			summary.NoMatch++
		case types.StatusError:
			summary.Failed++
		}
	}

	zap.L().Info("extraction run complete",
		zap.String("run_id", runID),
		zap.Int("found", summary.Found),
		zap.Int("no_match", summary.NoMatch),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, runErr
}
