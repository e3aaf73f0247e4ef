package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the owner referenced by expense and payment rows.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense represents a persisted expense for data transfer between layers.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Vendor      string    `json:"vendor"`
	Amount      float64   `json:"amount"`
	ExpenseDate time.Time `json:"expense_date"`
	Category    string    `json:"category"`
	RawText     string    `json:"raw_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payment represents a persisted payment for data transfer between layers.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	RawText       string    `json:"raw_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// DateRange bounds list and export queries; nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}
