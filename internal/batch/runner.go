// Package batch runs the extraction pipeline over many documents on a worker pool.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/joseph-ayodele/dipex/internal/entity"
)

// Extractor is satisfied by the orchestrator and the service facade.
type Extractor interface {
	Extract(ctx context.Context, doc *entity.RawDocument) (entity.ExtractionCandidate, error)
}

// Loader is satisfied by *blob.Resolver.
type Loader interface {
	Load(ctx context.Context, ref string) (entity.RawDocument, error)
}

// Result is the outcome for one reference. Err is set when the document could not be
// loaded or the extractor failed on it.
type Result struct {
	Ref       string
	Candidate entity.ExtractionCandidate
	Err       error
	Elapsed   time.Duration
}

type Config struct {
	Workers int
}

type Runner struct {
	pool      *ants.Pool
	extractor Extractor
	loader    Loader
	logger    *slog.Logger
}

func NewRunner(cfg Config, extractor Extractor, loader Loader, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Runner{pool: pool, extractor: extractor, loader: loader, logger: logger}, nil
}

// Run extracts every ref and returns results in input order. Refs not yet started when
// ctx is done get ctx.Err().
func (r *Runner) Run(ctx context.Context, refs []string) []Result {
	results := make([]Result, len(refs))
	var wg sync.WaitGroup

	for i, ref := range refs {
		results[i].Ref = ref
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		idx := i
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[idx] = r.one(ctx, refs[idx])
		})
		if err != nil {
			wg.Done()
			r.logger.Error("batch.submit.failed", "ref", ref, "error", err)
			results[i].Err = fmt.Errorf("submit: %w", err)
		}
	}

	wg.Wait()
	return results
}

func (r *Runner) one(ctx context.Context, ref string) Result {
	start := time.Now()
	res := Result{Ref: ref}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	doc, err := r.loader.Load(ctx, ref)
	if err != nil {
		r.logger.Warn("batch.load.failed", "ref", ref, "error", err)
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	res.Candidate, err = r.extractor.Extract(ctx, &doc)
	res.Elapsed = time.Since(start)
	if err != nil {
		r.logger.Warn("batch.extract.failed", "ref", ref, "error", err)
		res.Err = err
		return res
	}
	r.logger.Info("batch.extract.ok",
		"ref", ref,
		"source", res.Candidate.Source,
		"vendor", res.Candidate.Vendor,
		"amount", res.Candidate.Amount,
		"elapsed_ms", res.Elapsed.Milliseconds())
	return res
}

// Running returns the number of busy workers.
func (r *Runner) Running() int {
	return r.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (r *Runner) Capacity() int {
	return r.pool.Cap()
}

// Release shuts the pool down.
func (r *Runner) Release() {
	r.logger.Debug("batch.pool.release", "running_workers", r.pool.Running())
	r.pool.Release()
}
