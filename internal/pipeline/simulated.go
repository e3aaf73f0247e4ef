package pipeline

import (
	"errors"
	"time"

	"github.com/joseph-ayodele/dipex/constants"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

var errNoRecognizer = errors.New("no text recognizer configured")

// SimulatedTransactionID marks filler data so it is never mistaken for a real payment.
const SimulatedTransactionID = "SIMULATED-0000"

// Simulated is the fixed candidate returned when there is no image to read.
func Simulated() entity.ExtractionCandidate {
	return entity.ExtractionCandidate{
		Vendor:        "Starbucks",
		Amount:        350.00,
		Currency:      constants.DefaultCurrency,
		TransactionID: SimulatedTransactionID,
		Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Category:      string(constants.FoodAndDining),
		PaymentMethod: constants.PaymentMethodUnknown,
		PaymentStatus: string(constants.PaymentStatusUnknown),
		RawText:       "",
		Source:        entity.SourceSimulated,
	}
}
