package models

// APIStatus values besides these are the matcher's not-found reasons
// (no-results, no-exact-match, remote-error).
const (
	APIStatusFound   = "found"
	APIStatusSkipped = "skipped"
)

// PreviewRow is what /upload returns and what /confirm expects back.
// JumpsellerID is null when the row did not resolve to a product.
type PreviewRow struct {
	Row          int    `json:"row,omitempty"`
	SKU          string `json:"sku"`
	ProductName  string `json:"product_name"`
	PriceNew     string `json:"price_new"`
	DateNew      string `json:"date_new"`
	JumpsellerID *int64 `json:"jumpseller_id"`
	APIStatus    string `json:"api_status"`
	ErrorCodInt  string `json:"error_cod_int"`
	Suggestion   string `json:"suggestion,omitempty"`
}

type PreviewResponse struct {
	Preview []PreviewRow `json:"preview"`
}

type ConfirmRequest struct {
	Data []PreviewRow `json:"data"`
}

type ConfirmResponse struct {
	BatchID string          `json:"batch_id,omitempty"`
	Results []UpdateOutcome `json:"results"`
}
