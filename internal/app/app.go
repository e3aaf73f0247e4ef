// Package app assembles the extraction core from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/dipex/internal/audit"
	"github.com/joseph-ayodele/dipex/internal/blob"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/events"
	"github.com/joseph-ayodele/dipex/internal/export"
	"github.com/joseph-ayodele/dipex/internal/llm"
	"github.com/joseph-ayodele/dipex/internal/llm/gemini"
	"github.com/joseph-ayodele/dipex/internal/llm/openai"
	"github.com/joseph-ayodele/dipex/internal/metrics"
	"github.com/joseph-ayodele/dipex/internal/ocr"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
	"github.com/joseph-ayodele/dipex/internal/records"
	"github.com/joseph-ayodele/dipex/internal/repository"
	"github.com/joseph-ayodele/dipex/internal/service"
)

// PipelineConfig is the one place the vision gate is read from configuration.
func PipelineConfig(cfg *common.Config) pipeline.Config {
	return pipeline.Config{
		VisionEnabled:   cfg.VisionEnabled(),
		VisionTimeout:   cfg.LLM.Timeout,
		OCRTimeout:      cfg.OCR.Timeout,
		DefaultCurrency: cfg.Extraction.DefaultCurrency,
		RequestTimeout:  cfg.Extraction.RequestTimeout,
	}
}

func OCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.Language,
		TessdataDir:   cfg.TessdataDir,
		PSM:           cfg.PSM,
		Timeout:       cfg.Timeout,
	}
}

// NewVisionExtractor builds the configured backend, or nil when vision is disabled.
func NewVisionExtractor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.VisionExtractor, error) {
	if !cfg.VisionEnabled() {
		logger.Warn("vision extractor disabled", "provider", cfg.LLM.Provider, "hint", "set the provider API key to enable")
		return nil, nil
	}
	switch cfg.LLM.Provider {
	case common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		logger.Info("vision extractor ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return c, nil
	case common.ProviderOpenAI, "":
		logger.Info("vision extractor ready", "provider", common.ProviderOpenAI, "model", cfg.LLM.Model)
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

// Core is the extraction pipeline with its blob resolver and metrics.
type Core struct {
	Orchestrator *pipeline.Orchestrator
	Blobs        *blob.Resolver
	Metrics      *metrics.Metrics
}

func NewCore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Core, error) {
	vision, err := NewVisionExtractor(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	blobs := blob.NewResolver(blob.Config{
		Bucket:   cfg.Storage.GCSBucket,
		MaxBytes: cfg.Server.MaxUploadBytes,
	}, logger)
	m := metrics.New()

	orch := pipeline.NewOrchestrator(
		PipelineConfig(cfg),
		ocr.NewRecognizer(OCRConfig(cfg.OCR), logger),
		vision,
		logger,
		pipeline.WithBlobResolver(blobs),
		pipeline.WithObserver(m),
	)
	return &Core{Orchestrator: orch, Blobs: blobs, Metrics: m}, nil
}

func (c *Core) Close() error {
	return c.Blobs.Close()
}

// NewAuditTrail connects to MongoDB when configured; otherwise audit records are dropped.
func NewAuditTrail(ctx context.Context, cfg common.MongoConfig, logger *slog.Logger) (audit.Trail, func(context.Context) error, error) {
	if cfg.URI == "" {
		logger.Info("audit trail disabled", "hint", "set MONGO_URI to enable")
		return audit.Noop{}, func(context.Context) error { return nil }, nil
	}
	db, err := audit.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return audit.NewMongoTrail(db.Collection(cfg.Collection), cfg.Timeout, logger), db.Close, nil
}

// NewPublisher builds the Kafka publisher when brokers are configured.
func NewPublisher(cfg common.KafkaConfig, logger *slog.Logger) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info("events disabled", "hint", "set KAFKA_BROKERS to enable")
		return events.Noop{}, nil
	}
	return events.NewKafkaPublisher(cfg, logger)
}

// ServiceDeps holds the optional collaborators of NewService.
type ServiceDeps struct {
	Audit  audit.Trail
	Events events.Publisher
}

func NewService(core *Core, store repository.Store, deps ServiceDeps, logger *slog.Logger) *service.ExtractionService {
	return service.New(service.Deps{
		Pipeline: core.Orchestrator,
		Builder:  records.NewBuilder(store, logger),
		Users:    store,
		Records:  store,
		Exporter: export.NewService(store, logger),
		Audit:    deps.Audit,
		Events:   deps.Events,
		Metrics:  core.Metrics,
	}, logger)
}
