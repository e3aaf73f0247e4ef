package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/dipex/constants"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/llm"
	"github.com/joseph-ayodele/dipex/internal/parser"
)

// Config is built once at startup. VisionEnabled is the only switch for the vision stage.
type Config struct {
	VisionEnabled bool
	VisionTimeout time.Duration
	OCRTimeout    time.Duration
	// RequestTimeout bounds a whole Run, blob load included. Zero means no bound.
	RequestTimeout  time.Duration
	DefaultCurrency string
	Now             func() time.Time
}

// TextRecognizer is satisfied by *ocr.Recognizer.
type TextRecognizer interface {
	Recognize(ctx context.Context, img []byte) string
}

// BlobResolver loads the bytes behind a document reference.
type BlobResolver interface {
	Load(ctx context.Context, ref string) (entity.RawDocument, error)
}

// Observer receives stage outcomes; used for metrics.
type Observer interface {
	StageUnavailable(stage, reason string)
	Extracted(source string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) StageUnavailable(string, string) {}
func (noopObserver) Extracted(string, time.Duration) {}

// Outcome is a candidate plus how it was obtained.
type Outcome struct {
	Candidate entity.ExtractionCandidate
	Vision    StageResult
	OCR       StageResult
	Elapsed   time.Duration
}

// Orchestrator runs the fallback chain: simulated data when there is no image, then
// the vision extractor if enabled, then local OCR. The chosen text goes through the parser.
type Orchestrator struct {
	cfg        Config
	vision     llm.VisionExtractor
	recognizer TextRecognizer
	blobs      BlobResolver
	observer   Observer
	log        *slog.Logger
}

type Option func(*Orchestrator)

func WithBlobResolver(b BlobResolver) Option { return func(o *Orchestrator) { o.blobs = b } }

func WithObserver(obs Observer) Option { return func(o *Orchestrator) { o.observer = obs } }

func NewOrchestrator(cfg Config, recognizer TextRecognizer, vision llm.VisionExtractor, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = constants.DefaultCurrency
	}
	if cfg.VisionEnabled && vision == nil {
		logger.Warn("pipeline.vision.no_backend", "hint", "vision enabled without an extractor; disabling")
		cfg.VisionEnabled = false
	}
	o := &Orchestrator{
		cfg:        cfg,
		vision:     vision,
		recognizer: recognizer,
		observer:   noopObserver{},
		log:        logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.observer == nil {
		o.observer = noopObserver{}
	}
	logger.Info("pipeline.configured",
		"vision_enabled", cfg.VisionEnabled,
		"vision_timeout", cfg.VisionTimeout.String(),
		"ocr_timeout", cfg.OCRTimeout.String(),
		"default_currency", cfg.DefaultCurrency,
	)
	return o
}

// VisionEnabled reports the configuration-time decision.
func (o *Orchestrator) VisionEnabled() bool { return o.cfg.VisionEnabled }

// Extract returns a fully populated candidate. The only error is a referenced blob that
// exists but could not be read (storage down, not an image).
func (o *Orchestrator) Extract(ctx context.Context, doc *entity.RawDocument) (entity.ExtractionCandidate, error) {
	out, err := o.Run(ctx, doc)
	return out.Candidate, err
}

// Run is Extract with the per-stage results attached.
func (o *Orchestrator) Run(ctx context.Context, doc *entity.RawDocument) (Outcome, error) {
	start := time.Now()
	out := Outcome{
		Vision: Skipped("not attempted"),
		OCR:    Skipped("not attempted"),
	}
	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}

	img, mediaType, ok, err := o.resolve(ctx, doc)
	if err != nil {
		return out, err
	}
	if !ok {
		out.Candidate = Simulated()
		return o.finish(out, start), nil
	}

	if o.cfg.VisionEnabled {
		out.Vision = runStage(ctx, o.cfg.VisionTimeout, func(ctx context.Context) (string, error) {
			return o.vision.Extract(ctx, img, mediaType)
		})
		if out.Vision.IsOk() {
			out.Candidate = o.parse(out.Vision.Text, entity.SourceVision)
			return o.finish(out, start), nil
		}
		o.log.Warn("pipeline.vision.unavailable", "reason", out.Vision.Reason)
		o.observer.StageUnavailable(StageVision, out.Vision.Reason)
	} else {
		out.Vision = Skipped("disabled")
	}

	out.OCR = runStage(ctx, o.cfg.OCRTimeout, func(ctx context.Context) (string, error) {
		if o.recognizer == nil {
			return "", errNoRecognizer
		}
		return o.recognizer.Recognize(ctx, img), nil
	})
	if !out.OCR.IsOk() {
		o.log.Info("pipeline.ocr.unavailable", "reason", out.OCR.Reason)
		o.observer.StageUnavailable(StageOCR, out.OCR.Reason)
	}
	// empty text still goes through the parser, which fills defaults
	out.Candidate = o.parse(out.OCR.Text, entity.SourceOCR)
	return o.finish(out, start), nil
}

// resolve returns ok=false when there is nothing to read. Load failures other than
// ErrNotFound are returned as is.
func (o *Orchestrator) resolve(ctx context.Context, doc *entity.RawDocument) ([]byte, string, bool, error) {
	if doc.IsEmpty() {
		o.log.Info("pipeline.simulated", "reason", "no document")
		return nil, "", false, nil
	}
	if len(doc.Bytes) > 0 {
		return doc.Bytes, doc.MediaType, true, nil
	}
	if o.blobs == nil {
		o.log.Warn("pipeline.simulated", "reason", "no blob resolver", "ref", doc.Ref)
		o.observer.StageUnavailable(StageBlob, "no resolver")
		return nil, "", false, nil
	}
	loaded, err := o.blobs.Load(ctx, doc.Ref)
	switch {
	case errors.Is(err, common.ErrNotFound), err == nil && len(loaded.Bytes) == 0:
		o.log.Warn("pipeline.simulated", "reason", "document not found", "ref", doc.Ref, "error", err)
		o.observer.StageUnavailable(StageBlob, "not found")
		return nil, "", false, nil
	case err != nil:
		o.log.Error("pipeline.blob.failed", "ref", doc.Ref, "error", err)
		o.observer.StageUnavailable(StageBlob, "load failed")
		return nil, "", false, err
	}
	mediaType := loaded.MediaType
	if mediaType == "" {
		mediaType = doc.MediaType
	}
	return loaded.Bytes, mediaType, true, nil
}

func (o *Orchestrator) parse(text, source string) entity.ExtractionCandidate {
	c := parser.ParseWithDefaults(text, parser.Defaults{
		Currency: o.cfg.DefaultCurrency,
		Now:      o.cfg.Now,
	})
	c.Source = source
	return c
}

func (o *Orchestrator) finish(out Outcome, start time.Time) Outcome {
	out.Elapsed = time.Since(start)
	o.observer.Extracted(out.Candidate.Source, out.Elapsed)
	o.log.Info("pipeline.extract.ok",
		"source", out.Candidate.Source,
		"vision", out.Vision.Status.String(),
		"ocr", out.OCR.Status.String(),
		"vendor", out.Candidate.Vendor,
		"amount", out.Candidate.Amount,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out
}
