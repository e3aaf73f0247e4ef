package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/dipex/internal/audit"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/events"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, doc *entity.RawDocument) (pipeline.Outcome, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(pipeline.Outcome), args.Error(1)
}

type MockCommitter struct {
	mock.Mock
}

func (m *MockCommitter) Commit(ctx context.Context, c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error) {
	args := m.Called(ctx, c, userID)
	return args.Get(0).(entity.Expense), args.Get(1).(entity.Payment), args.Error(2)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (entity.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(entity.User), args.Error(1)
}

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) CommitExtraction(ctx context.Context, userID uuid.UUID, exp *entity.Expense, pay *entity.Payment) error {
	args := m.Called(ctx, userID, exp, pay)
	return args.Error(0)
}

func (m *MockRecordStore) ListExpenses(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Expense, error) {
	args := m.Called(ctx, userID, r)
	return args.Get(0).([]entity.Expense), args.Error(1)
}

func (m *MockRecordStore) ListPayments(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Payment, error) {
	args := m.Called(ctx, userID, r)
	return args.Get(0).([]entity.Payment), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportExpensesXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockTrail struct {
	mock.Mock
}

func (m *MockTrail) Record(ctx context.Context, rec audit.Record) {
	m.Called(ctx, rec)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCommitted(ctx context.Context, ev events.Committed) {
	m.Called(ctx, ev)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) CommitRecorded(outcome string) {
	m.Called(outcome)
}
