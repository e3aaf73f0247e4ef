package records

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dipex/constants"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/parser"
	"github.com/joseph-ayodele/dipex/internal/repository"
)

// MaxAmount is the largest value a numeric(10,2) column holds.
const MaxAmount = 99_999_999.99

// Builder maps a candidate to the expense and payment rows of one user and commits them together.
type Builder struct {
	store  repository.RecordStore
	now    func() time.Time
	newID  func() uuid.UUID
	logger *slog.Logger
}

func NewBuilder(store repository.RecordStore, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, now: time.Now, newID: uuid.New, logger: logger}
}

// Build validates and coerces c into the two records without touching the store.
func (b *Builder) Build(c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error) {
	v := common.NewValidator()
	if userID == uuid.Nil {
		v.Field("user_id", "", common.Required)
	}
	v.Field("vendor", c.Vendor, common.Required, common.MaxLength(255))
	v.Field("amount", c.Amount, common.NonNegativeAmount)
	if strings.TrimSpace(c.Currency) != "" {
		v.Field("currency", c.Currency, common.CurrencyCode)
	}
	if c.Amount > MaxAmount {
		v.Field("amount", c.Amount, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "exceeds the maximum amount"}
		})
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return entity.Expense{}, entity.Payment{}, err
	}

	now := b.now().UTC()
	day := c.Date
	if day.IsZero() {
		day = parser.Today(now)
	} else {
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	}

	amount := parser.RoundAmount(c.Amount)
	category := defaultString(c.Category, string(constants.Other))
	if canon, ok := constants.Canonicalize(category); ok {
		category = string(canon)
	}

	var txnID *string
	if id := strings.TrimSpace(c.TransactionID); id != "" {
		txnID = &id
	}

	exp := entity.Expense{
		ID:          b.newID(),
		UserID:      userID,
		Vendor:      strings.TrimSpace(c.Vendor),
		Amount:      amount,
		ExpenseDate: day,
		Category:    category,
		RawText:     c.RawText,
		CreatedAt:   now,
	}
	pay := entity.Payment{
		ID:            b.newID(),
		UserID:        userID,
		Amount:        amount,
		PaymentDate:   day,
		PaymentMethod: defaultString(c.PaymentMethod, constants.PaymentMethodUnknown),
		PaymentStatus: defaultString(c.PaymentStatus, "unknown"),
		TransactionID: txnID,
		RawText:       c.RawText,
		CreatedAt:     now,
	}
	return exp, pay, nil
}

// Commit builds both records and persists them in one transaction. A missing user is
// NotFound and leaves nothing behind.
func (b *Builder) Commit(ctx context.Context, c entity.ExtractionCandidate, userID uuid.UUID) (entity.Expense, entity.Payment, error) {
	exp, pay, err := b.Build(c, userID)
	if err != nil {
		b.logger.Info("records.commit.invalid", "user_id", userID, "error", err)
		return entity.Expense{}, entity.Payment{}, err
	}

	if err := b.store.CommitExtraction(ctx, userID, &exp, &pay); err != nil {
		b.logger.Warn("records.commit.failed", "user_id", userID, "error", err)
		return entity.Expense{}, entity.Payment{}, err
	}

	b.logger.Info("records.commit.ok",
		"user_id", userID,
		"expense_id", exp.ID,
		"payment_id", pay.ID,
		"amount", exp.Amount,
		"source", c.Source,
	)
	return exp, pay, nil
}

func defaultString(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
