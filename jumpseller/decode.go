package jumpseller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pricesync/models"
)

// shape recognises one known response layout and returns the raw product
// objects it holds. ok is false when the layout does not apply.
type shape func(v any) (items []map[string]any, ok bool)

// Tried in order; the first shape that applies wins.
var responseShapes = []shape{
	bareArray,
	productsKey,
	productKey,
	flattened,
}

// DecodeProducts projects whatever product layout the API returned into
// RemoteProducts. Objects without a usable id are dropped.
func DecodeProducts(body []byte) ([]models.RemoteProduct, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode jumpseller response: %w", err)
	}

	items, _ := firstShape(v)

	products := make([]models.RemoteProduct, 0, len(items))
	for _, item := range items {
		if p, ok := projectProduct(item); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func firstShape(v any) ([]map[string]any, bool) {
	for _, s := range responseShapes {
		if items, ok := s(v); ok {
			return items, true
		}
	}
	return nil, false
}

func bareArray(v any) ([]map[string]any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	return unwrapAll(arr, "product"), true
}

func productsKey(v any) ([]map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := obj["products"].([]any)
	if !ok {
		return nil, false
	}
	return unwrapAll(arr, "product"), true
}

func productKey(v any) ([]map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	p, ok := obj["product"].(map[string]any)
	if !ok {
		return nil, false
	}
	return []map[string]any{p}, true
}

// flattened walks an arbitrary object and collects product-like values.
// It does not descend into an object once it looks like a product, so
// variants are never mistaken for products.
func flattened(v any) ([]map[string]any, bool) {
	if _, ok := v.(map[string]any); !ok {
		return nil, false
	}
	var out []map[string]any
	collect(v, &out)
	return out, len(out) > 0
}

func collect(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if productLike(t) {
			*out = append(*out, t)
			return
		}
		for _, child := range t {
			collect(child, out)
		}
	case []any:
		for _, child := range t {
			collect(child, out)
		}
	}
}

func productLike(m map[string]any) bool {
	if _, ok := m["id"]; !ok {
		return false
	}
	_, hasSKU := m["sku"]
	_, hasName := m["name"]
	return hasSKU || hasName
}

func unwrapAll(arr []any, key string) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m := unwrap(el, key); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func unwrap(v any, key string) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := m[key].(map[string]any); ok {
		return inner
	}
	return m
}

func projectProduct(m map[string]any) (models.RemoteProduct, bool) {
	id, ok := toInt(m["id"])
	if !ok || id <= 0 {
		return models.RemoteProduct{}, false
	}

	p := models.RemoteProduct{
		ID:    id,
		Name:  toString(m["name"]),
		SKU:   toString(m["sku"]),
		Price: toDecimalString(m["price"]),
	}

	if fields, ok := m["fields"].([]any); ok {
		for _, el := range fields {
			if f, ok := projectField(unwrap(el, "field")); ok {
				p.Fields = append(p.Fields, f)
			}
		}
	}

	return p, true
}

func projectField(m map[string]any) (models.CustomField, bool) {
	if m == nil {
		return models.CustomField{}, false
	}
	id, ok := toInt(m["id"])
	if !ok {
		return models.CustomField{}, false
	}

	f := models.CustomField{
		ID:    id,
		Label: toString(m["label"]),
		Value: toString(m["value"]),
	}
	f.CustomFieldID, _ = toInt(m["custom_field_id"])

	// some versions nest the definition instead
	if def, ok := m["custom_field"].(map[string]any); ok {
		if f.CustomFieldID == 0 {
			f.CustomFieldID, _ = toInt(def["id"])
		}
		if f.Label == "" {
			f.Label = toString(def["label"])
		}
	}
	return f, true
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(t), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toDecimalString(v any) string {
	s := strings.TrimSpace(toString(v))
	if s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}
