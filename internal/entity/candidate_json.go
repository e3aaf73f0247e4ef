package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

type candidateAlias ExtractionCandidate

type candidateJSON struct {
	candidateAlias
	Date string `json:"date"`
}

// MarshalJSON emits the date as a calendar date.
func (c ExtractionCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(candidateJSON{candidateAlias: candidateAlias(c), Date: c.DateString()})
}

// UnmarshalJSON accepts the calendar date written by MarshalJSON.
func (c *ExtractionCandidate) UnmarshalJSON(b []byte) error {
	var aux candidateJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = ExtractionCandidate(aux.candidateAlias)
	if aux.Date != "" {
		d, err := time.Parse(DateLayout, aux.Date)
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		c.Date = d
	}
	return nil
}
