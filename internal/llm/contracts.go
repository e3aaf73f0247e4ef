package llm

import (
	"context"
	"errors"
)

// Answers is the fixed set of questions put to the vision model.
type Answers struct {
	Vendor        string `json:"vendor"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
	Date          string `json:"date"`
}

// VisionExtractor is the interface the extraction pipeline depends on.
// Extract returns the raw answer text for one image; parsing is left to the caller.
type VisionExtractor interface {
	Extract(ctx context.Context, img []byte, mediaType string) (string, error)
}

// ErrEmptyAnswer is returned when the model produced nothing usable.
var ErrEmptyAnswer = errors.New("empty vision answer")
