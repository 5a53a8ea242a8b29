package models

const (
	StatusUpdated      = "updated"
	StatusPartial      = "partial"
	StatusFailed       = "failed"
	StatusNotReflected = "not-reflected"
	StatusSkipped      = "skipped"
)

// UpdateOutcome is the result of confirming a single row. Outcomes are never
// folded into one batch-wide failure.
type UpdateOutcome struct {
	SKU     string      `json:"sku"`
	OK      bool        `json:"ok"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    *UpdateData `json:"data,omitempty"`
}

type UpdateData struct {
	JumpsellerID int64  `json:"jumpseller_id"`
	Price        string `json:"price,omitempty"`
	Date         string `json:"date,omitempty"`
	PriceOK      bool   `json:"price_ok"`
	DateOK       bool   `json:"date_ok"`
	PriceError   string `json:"price_error,omitempty"`
	DateError    string `json:"date_error,omitempty"`
	Verified     bool   `json:"verified"`
}
