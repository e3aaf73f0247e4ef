package handler

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
	"github.com/joseph-ayodele/dipex/internal/parser"
	"github.com/joseph-ayodele/dipex/internal/records"
)

// CandidateInput is a client-edited candidate. Amount may be a number or a string
// such as "₹1,200.50"; date may use any layout the parser accepts.
type CandidateInput struct {
	Vendor        string `json:"vendor"`
	Amount        any    `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	RawText       string `json:"raw_text"`
	Source        string `json:"source"`
}

// CommitRequest is the body of the commit endpoint.
type CommitRequest struct {
	UserID    string         `json:"user_id" binding:"required"`
	Candidate CandidateInput `json:"candidate"`
}

// CommitResponse carries the ids of the stored pair.
type CommitResponse struct {
	ExpenseID string `json:"expense_id"`
	PaymentID string `json:"payment_id"`
}

// HealthResponse is the root status document.
type HealthResponse struct {
	Status string `json:"status"`
	App    string `json:"app"`
}

// ToCandidate coerces the input. A blank date stays zero and is defaulted at commit.
func (in CandidateInput) ToCandidate() (entity.ExtractionCandidate, error) {
	amount, err := records.ParseAmount(in.Amount)
	if err != nil {
		return entity.ExtractionCandidate{}, err
	}
	c := entity.ExtractionCandidate{
		Vendor:        strings.TrimSpace(in.Vendor),
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		TransactionID: strings.TrimSpace(in.TransactionID),
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: in.PaymentStatus,
		RawText:       in.RawText,
		Source:        in.Source,
	}
	if d := strings.TrimSpace(in.Date); d != "" {
		t, ok := parser.NormalizeDate(d)
		if !ok {
			return entity.ExtractionCandidate{}, common.ValidationFailed(fmt.Sprintf("date %q is not a recognized date", d), nil)
		}
		c.Date = t
	}
	return c, nil
}
