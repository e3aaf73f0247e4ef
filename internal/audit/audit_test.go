package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
)

type MockInserter struct {
	mock.Mock
}

func (m *MockInserter) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.InsertOneResult), args.Error(1)
}

func outcome() pipeline.Outcome {
	return pipeline.Outcome{
		Candidate: entity.ExtractionCandidate{
			Vendor:        "Starbucks",
			Amount:        350,
			Currency:      "INR",
			TransactionID: "123456789",
			Date:          time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
			Category:      "Food & Dining",
			PaymentMethod: "UPI",
			PaymentStatus: "Success",
			RawText:       "Paid to Starbucks ₹350",
			Source:        entity.SourceOCR,
		},
		Vision:  pipeline.Unavailable("timeout after 15s"),
		OCR:     pipeline.Ok("Paid to Starbucks ₹350"),
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestFromOutcome(t *testing.T) {
	now := time.Date(2025, 1, 12, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	rec := FromOutcome("req-1", "user-1", outcome(), now)

	assert.Equal(t, "req-1", rec.RequestID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, entity.SourceOCR, rec.Source)
	assert.Equal(t, "unavailable", rec.VisionStatus)
	assert.Equal(t, "timeout after 15s", rec.VisionReason)
	assert.Equal(t, "ok", rec.OCRStatus)
	assert.Empty(t, rec.OCRReason)
	assert.Equal(t, "2025-01-12", rec.Candidate.Date)
	assert.Equal(t, "123456789", rec.Candidate.TransactionID)
	assert.Equal(t, int64(1500), rec.ElapsedMS)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
}

func TestMongoTrail_Record(t *testing.T) {
	coll := new(MockInserter)
	rec := FromOutcome("req-1", "", outcome(), time.Now())
	coll.On("InsertOne", mock.Anything, rec).Return(&mongo.InsertOneResult{InsertedID: "x"}, nil).Once()

	NewMongoTrail(coll, time.Second, nil).Record(context.Background(), rec)
	coll.AssertExpectations(t)
}

func TestMongoTrail_InsertFailureIsSwallowed(t *testing.T) {
	coll := new(MockInserter)
	coll.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errors.New("no primary")).Once()

	require.NotPanics(t, func() {
		NewMongoTrail(coll, time.Second, nil).Record(context.Background(), Record{RequestID: "req-2"})
	})
	coll.AssertExpectations(t)
}

func TestMongoTrail_OutlivesCanceledRequest(t *testing.T) {
	coll := new(MockInserter)
	coll.On("InsertOne", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	}), mock.Anything).Return(&mongo.InsertOneResult{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewMongoTrail(coll, time.Second, nil).Record(ctx, Record{RequestID: "req-3"})
	coll.AssertExpectations(t)
}

func TestNoop(t *testing.T) {
	var trail Trail = Noop{}
	assert.NotPanics(t, func() { trail.Record(context.Background(), Record{}) })
}
