package models

import "time"

type GenericResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Batch is one confirmed set of outcomes as kept by the batch ledger.
type Batch struct {
	ID        string          `json:"batch_id"`
	CreatedAt time.Time       `json:"created_at"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Results   []UpdateOutcome `json:"results"`
}

func NewBatch(id string, results []UpdateOutcome, now time.Time) Batch {
	b := Batch{ID: id, CreatedAt: now.UTC(), Total: len(results), Results: results}
	for _, r := range results {
		if r.OK {
			b.Succeeded++
		}
	}
	return b
}
