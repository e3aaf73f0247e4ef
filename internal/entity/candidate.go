package entity

import (
	"time"
)

// Extraction sources, recorded on every candidate.
const (
	SourceVision    = "vision"
	SourceOCR       = "ocr"
	SourceSimulated = "simulated"
)

// DateLayout is the wire format of candidate and record dates.
const DateLayout = "2006-01-02"

// RawDocument references the image bytes of one extraction request.
// Either Bytes is set, or Ref names a blob the resolver can load.
type RawDocument struct {
	Bytes     []byte
	MediaType string
	Ref       string
	Filename  string
}

// IsEmpty reports whether the document carries neither bytes nor a reference.
func (d *RawDocument) IsEmpty() bool {
	return d == nil || (len(d.Bytes) == 0 && d.Ref == "")
}

// ExtractionCandidate is the always fully populated result of one extraction.
type ExtractionCandidate struct {
	Vendor        string    `json:"vendor"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"-"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	RawText       string    `json:"raw_text"`
	Source        string    `json:"source"`
}

// DateString renders the candidate date as YYYY-MM-DD.
func (c ExtractionCandidate) DateString() string {
	return c.Date.Format(DateLayout)
}
