package models

// RemoteProduct is the projection of a Jumpseller product the service needs.
// Identity is ID.
type RemoteProduct struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	SKU    string        `json:"sku"`
	Price  string        `json:"price"`
	Fields []CustomField `json:"fields,omitempty"`
}

// CustomField is a per-product instance of a custom field definition. ID is
// the instance id used for writes, CustomFieldID the shared definition id.
type CustomField struct {
	ID            int64  `json:"id"`
	CustomFieldID int64  `json:"custom_field_id"`
	Label         string `json:"label"`
	Value         string `json:"value"`
}
