// Package audit keeps a per-extraction trail of which source produced each candidate.
package audit

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/pipeline"
)

// Record is one audit document.
type Record struct {
	RequestID    string       `bson:"request_id"`
	UserID       string       `bson:"user_id,omitempty"`
	Source       string       `bson:"source"`
	VisionStatus string       `bson:"vision_status"`
	VisionReason string       `bson:"vision_reason,omitempty"`
	OCRStatus    string       `bson:"ocr_status"`
	OCRReason    string       `bson:"ocr_reason,omitempty"`
	Candidate    CandidateDoc `bson:"candidate"`
	ElapsedMS    int64        `bson:"elapsed_ms"`
	CreatedAt    time.Time    `bson:"created_at"`
}

// CandidateDoc is the stored form of an extraction candidate.
type CandidateDoc struct {
	Vendor        string  `bson:"vendor"`
	Amount        float64 `bson:"amount"`
	Currency      string  `bson:"currency"`
	TransactionID string  `bson:"transaction_id"`
	Date          string  `bson:"date"`
	Category      string  `bson:"category"`
	PaymentMethod string  `bson:"payment_method"`
	PaymentStatus string  `bson:"payment_status"`
	RawText       string  `bson:"raw_text"`
}

// FromOutcome builds the audit record of one orchestrator run.
func FromOutcome(requestID, userID string, out pipeline.Outcome, now time.Time) Record {
	c := out.Candidate
	return Record{
		RequestID:    requestID,
		UserID:       userID,
		Source:       c.Source,
		VisionStatus: out.Vision.Status.String(),
		VisionReason: out.Vision.Reason,
		OCRStatus:    out.OCR.Status.String(),
		OCRReason:    out.OCR.Reason,
		Candidate:    candidateDoc(c),
		ElapsedMS:    out.Elapsed.Milliseconds(),
		CreatedAt:    now.UTC(),
	}
}

func candidateDoc(c entity.ExtractionCandidate) CandidateDoc {
	return CandidateDoc{
		Vendor:        c.Vendor,
		Amount:        c.Amount,
		Currency:      c.Currency,
		TransactionID: c.TransactionID,
		Date:          c.DateString(),
		Category:      c.Category,
		PaymentMethod: c.PaymentMethod,
		PaymentStatus: c.PaymentStatus,
		RawText:       c.RawText,
	}
}

// Trail records extraction outcomes. Implementations never fail the caller.
type Trail interface {
	Record(ctx context.Context, rec Record)
}

// Inserter is the subset of *mongo.Collection the trail needs.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoTrail writes records to a MongoDB collection.
type MongoTrail struct {
	coll    Inserter
	timeout time.Duration
	logger  *slog.Logger
}

func NewMongoTrail(coll Inserter, timeout time.Duration, logger *slog.Logger) *MongoTrail {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoTrail{coll: coll, timeout: timeout, logger: logger}
}

// Record inserts rec. The write outlives the caller's cancellation but not the timeout.
func (t *MongoTrail) Record(ctx context.Context, rec Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	if _, err := t.coll.InsertOne(ctx, rec); err != nil {
		t.logger.Error("audit.insert.failed",
			"req_id", rec.RequestID,
			"source", rec.Source,
			"error", err)
		return
	}
	t.logger.Debug("audit.insert.ok", "req_id", rec.RequestID, "source", rec.Source)
}

// Noop discards records.
type Noop struct{}

func (Noop) Record(context.Context, Record) {}
