package jumpseller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricesync/models"
)

var ErrDateFieldNotFound = errors.New("date-field-not-found")

const DateFieldLabel = "Date"

// ApplyResult tracks the price and date writes separately. A sub-operation
// with empty input is not attempted and does not count as a failure.
type ApplyResult struct {
	PriceAttempted bool
	PriceOK        bool
	PriceErr       error

	DateAttempted bool
	DateOK        bool
	DateErr       error
	DateFieldID   int64

	// Verified is set when a re-read of the product matched every accepted
	// write. Mismatch lists the writes the remote accepted but did not keep.
	Verified bool
	Mismatch []string
}

// OK is the AND of the attempted sub-operations, with nothing left
// unreflected.
func (r ApplyResult) OK() bool {
	if !r.PriceAttempted && !r.DateAttempted {
		return false
	}
	if r.PriceAttempted && !r.PriceOK {
		return false
	}
	if r.DateAttempted && !r.DateOK {
		return false
	}
	return len(r.Mismatch) == 0
}

type Applier struct {
	store       ProductStore
	dateFieldID int64
	verify      bool
}

// NewApplier takes the fallback custom field definition id used when no
// field on the product is labelled Date (0 disables the fallback).
func NewApplier(store ProductStore, fallbackDateFieldID int64, verify bool) *Applier {
	return &Applier{store: store, dateFieldID: fallbackDateFieldID, verify: verify}
}

// Apply writes price and date to one product. Field ids are per product, so
// the date field is looked up on the product itself before writing.
func (a *Applier) Apply(ctx context.Context, productID int64, price, date string) ApplyResult {
	var res ApplyResult
	log := zap.L().With(zap.Int64("product_id", productID))

	if price != "" {
		res.PriceAttempted = true
		if err := a.store.UpdatePrice(ctx, productID, price); err != nil {
			log.Warn("price update failed", zap.Error(err))
			res.PriceErr = err
		} else {
			res.PriceOK = true
		}
	}

	if date != "" {
		res.DateAttempted = true
		res.DateFieldID, res.DateErr = a.dateField(ctx, productID)
		if res.DateErr == nil {
			if err := a.store.UpdateField(ctx, productID, res.DateFieldID, date); err != nil {
				log.Warn("date field update failed", zap.Int64("field_id", res.DateFieldID), zap.Error(err))
				res.DateErr = err
			} else {
				res.DateOK = true
			}
		} else {
			log.Warn("date field unavailable", zap.Error(res.DateErr))
		}
	}

	if a.verify && (res.PriceOK || res.DateOK) {
		a.verifyWrites(ctx, productID, price, date, &res)
	}

	return res
}

func (a *Applier) dateField(ctx context.Context, productID int64) (int64, error) {
	product, err := a.store.GetProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("fetch product: %w", err)
	}
	field, ok := FindDateField(product, a.dateFieldID)
	if !ok {
		return 0, ErrDateFieldNotFound
	}
	return field.ID, nil
}

// FindDateField picks the field labelled Date (any case) or, failing that,
// the instance of the fallback definition id.
func FindDateField(p models.RemoteProduct, fallbackDefinitionID int64) (models.CustomField, bool) {
	for _, f := range p.Fields {
		if strings.EqualFold(strings.TrimSpace(f.Label), DateFieldLabel) {
			return f, true
		}
	}
	if fallbackDefinitionID > 0 {
		for _, f := range p.Fields {
			if f.CustomFieldID == fallbackDefinitionID {
				return f, true
			}
		}
	}
	return models.CustomField{}, false
}

func (a *Applier) verifyWrites(ctx context.Context, productID int64, price, date string, res *ApplyResult) {
	product, err := a.store.GetProduct(ctx, productID)
	if err != nil {
		zap.L().Warn("verification read failed", zap.Int64("product_id", productID), zap.Error(err))
		return
	}

	if res.PriceOK && !samePrice(product.Price, price) {
		res.Mismatch = append(res.Mismatch, "price")
	}

	if res.DateOK {
		stored := ""
		for _, f := range product.Fields {
			if f.ID == res.DateFieldID {
				stored = f.Value
				break
			}
		}
		if strings.TrimSpace(stored) != date {
			res.Mismatch = append(res.Mismatch, "date")
		}
	}

	res.Verified = len(res.Mismatch) == 0
}

func samePrice(stored, sent string) bool {
	a, err := decimal.NewFromString(strings.TrimSpace(stored))
	if err != nil {
		return false
	}
	b, err := decimal.NewFromString(sent)
	if err != nil {
		return false
	}
	return a.Equal(b)
}
