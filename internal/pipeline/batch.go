package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchSummary counts the results of a batch run.
type BatchSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Sensitive int           `json:"sensitive"`
	Duration  time.Duration `json:"duration_ns"`
}

// Batch processes every path into outDir using at most workers goroutines.
//
// Images are independent: a failure is recorded and the remaining images are
// still processed. The returned outcomes line up with paths; failed entries
// are nil. The error combines every per-image StageError (see multierr.Errors).
//
// Artifacts are named after the input's base name, so two paths with the same
// base name would write the same files. Only the first is processed; each
// later one fails with ErrArtifactWrite naming both paths.
//
// Cancelling ctx stops new images from being scheduled. Images already running
// finish, and ctx.Err() is appended to the returned error.
func (p *Pipeline) Batch(ctx context.Context, paths []string, outDir string, workers int) ([]*Outcome, BatchSummary, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		errs     error
		failed   int
		outcomes = make([]*Outcome, len(paths))
	)
	g.SetLimit(workers)

	owners := make(map[string]int, len(paths))
	for i, path := range paths {
		if _, ok := owners[filepath.Base(path)]; !ok {
			owners[filepath.Base(path)] = i
		}
	}

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		name := filepath.Base(path)
		if first := owners[name]; first != i {
			err := stageError(StageWrite, name, ErrArtifactWrite,
				fmt.Errorf("%s would overwrite the artifacts of %s", path, paths[first]))
			p.logger.WithImage(name).Warn("anonymization skipped", zap.Error(err))
			mu.Lock()
			errs = multierr.Append(errs, err)
			failed++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out, err := p.Process(path, outDir)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				failed++
				mu.Unlock()
				return nil
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	errs = multierr.Append(errs, ctx.Err())

	summary := BatchSummary{Total: len(paths), Failed: failed, Duration: time.Since(start)}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		summary.Succeeded++
		if o.Detection.Sensitive() {
			summary.Sensitive++
		}
	}
	summary.Skipped = summary.Total - summary.Succeeded - summary.Failed

	p.logger.Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("sensitive", summary.Sensitive),
		zap.Int("workers", workers),
		zap.Duration("duration", summary.Duration),
	)

	return outcomes, summary, errs
}
