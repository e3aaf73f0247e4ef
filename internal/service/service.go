// Package service is the application facade shared by the HTTP server and the CLIs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dipex/internal/audit"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/events"
	"github.com/joseph-ayodele/dipex/internal/metrics"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
	"github.com/joseph-ayodele/dipex/internal/repository"
)

// Pipeline is satisfied by *pipeline.Orchestrator.
type Pipeline interface {
	Run(ctx context.Context, doc *entity.RawDocument) (pipeline.Outcome, error)
}

// Committer is satisfied by *records.Builder.
type Committer interface {
	Commit(ctx context.Context, c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error)
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	ExportExpensesXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error)
}

// CommitRecorder is satisfied by *metrics.Metrics.
type CommitRecorder interface {
	CommitRecorded(outcome string)
}

// Deps wires the facade. Audit, Events and Metrics may be nil.
type Deps struct {
	Pipeline Pipeline
	Builder  Committer
	Users    repository.UserRepository
	Records  repository.RecordStore
	Exporter Exporter
	Audit    audit.Trail
	Events   events.Publisher
	Metrics  CommitRecorder
}

// Saved is the result of extract-and-save.
type Saved struct {
	Candidate entity.ExtractionCandidate `json:"candidate"`
	Expense   entity.Expense             `json:"expense"`
	Payment   entity.Payment             `json:"payment"`
}

type ExtractionService struct {
	pipeline Pipeline
	builder  Committer
	users    repository.UserRepository
	records  repository.RecordStore
	exporter Exporter
	audit    audit.Trail
	events   events.Publisher
	metrics  CommitRecorder
	now      func() time.Time
	logger   *slog.Logger
}

type noopRecorder struct{}

func (noopRecorder) CommitRecorded(string) {}

func New(deps Deps, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExtractionService{
		pipeline: deps.Pipeline,
		builder:  deps.Builder,
		users:    deps.Users,
		records:  deps.Records,
		exporter: deps.Exporter,
		audit:    deps.Audit,
		events:   deps.Events,
		metrics:  deps.Metrics,
		now:      time.Now,
		logger:   logger,
	}
	if s.audit == nil {
		s.audit = audit.Noop{}
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	return s
}

// Extract runs the pipeline and records the outcome. Extraction itself never fails; the
// error is a referenced document that could not be read.
func (s *ExtractionService) Extract(ctx context.Context, doc *entity.RawDocument) (entity.ExtractionCandidate, error) {
	out, err := s.pipeline.Run(ctx, doc)
	if err != nil {
		return entity.ExtractionCandidate{}, err
	}
	s.audit.Record(ctx, audit.FromOutcome(
		common.RequestIDFromContext(ctx),
		common.UserIDFromContext(ctx),
		out,
		s.now(),
	))
	return out.Candidate, nil
}

// ExtractAndSave checks the user before paying for extraction, then commits the candidate.
func (s *ExtractionService) ExtractAndSave(ctx context.Context, doc *entity.RawDocument, userID uuid.UUID) (Saved, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		s.metrics.CommitRecorded(commitOutcome(err))
		return Saved{}, err
	}

	ctx = common.WithUserID(ctx, userID.String())
	c, err := s.Extract(ctx, doc)
	if err != nil {
		s.metrics.CommitRecorded(commitOutcome(err))
		return Saved{}, err
	}
	exp, pay, err := s.Commit(ctx, c, userID)
	if err != nil {
		return Saved{}, err
	}
	return Saved{Candidate: c, Expense: exp, Payment: pay}, nil
}

// Commit persists a candidate as one expense and one payment for userID.
func (s *ExtractionService) Commit(ctx context.Context, c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error) {
	exp, pay, err := s.builder.Commit(ctx, c, userID)
	s.metrics.CommitRecorded(commitOutcome(err))
	if err != nil {
		return entity.Expense{}, entity.Payment{}, err
	}
	s.events.PublishCommitted(ctx, events.NewCommitted(c, exp, pay, s.now()))
	return exp, pay, nil
}

func (s *ExtractionService) ListExpenses(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Expense, error) {
	r, err := dateRange(userID, from, to)
	if err != nil {
		return nil, err
	}
	return s.records.ListExpenses(ctx, userID, r)
}

func (s *ExtractionService) ListPayments(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]entity.Payment, error) {
	r, err := dateRange(userID, from, to)
	if err != nil {
		return nil, err
	}
	return s.records.ListPayments(ctx, userID, r)
}

// ExportExpensesXLSX renders the user's records in the window as a workbook.
func (s *ExtractionService) ExportExpensesXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	if _, err := dateRange(userID, from, to); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.exporter.ExportExpensesXLSX(ctx, userID, from, to)
}

func (s *ExtractionService) requireUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return common.ValidationFailed("user_id is required", nil)
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("service.user.missing", "user_id", userID)
		return common.NotFoundError("user " + userID.String() + " not found")
	}
	return nil
}

func dateRange(userID uuid.UUID, from, to *time.Time) (entity.DateRange, error) {
	if userID == uuid.Nil {
		return entity.DateRange{}, common.ValidationFailed("user_id is required", nil)
	}
	if from != nil && to != nil && from.After(*to) {
		return entity.DateRange{}, common.ValidationFailed("from must not be after to", nil)
	}
	return entity.DateRange{From: from, To: to}, nil
}

func commitOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.CommitOK
	case errors.Is(err, common.ErrNotFound):
		return metrics.CommitNotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return metrics.CommitInvalid
	default:
		return metrics.CommitFailed
	}
}
