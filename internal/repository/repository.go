package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dipex/internal/entity"
)

// UserRepository is the user collaborator the extraction core depends on.
type UserRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
}

// RecordStore persists committed extractions.
type RecordStore interface {
	// CommitExtraction checks the user and inserts both rows in one transaction.
	// A missing user is ErrNotFound and nothing is written.
	CommitExtraction(ctx context.Context, userID uuid.UUID, exp *entity.Expense, pay *entity.Payment) error
	ListExpenses(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Expense, error)
	ListPayments(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Payment, error)
}

// Store is a complete durable store: users, records and lifecycle.
type Store interface {
	UserRepository
	RecordStore
	Ping(ctx context.Context) error
	Close()
}
