// Package reconcile runs the preview and confirm phases over a batch of
// rows. Every row is independent: a failure is recorded on that row and
// the rest of the batch carries on. Output order always equals input order.
package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pricesync/jumpseller"
	"pricesync/models"
	"pricesync/spreadsheet"
)

type Matcher interface {
	Match(ctx context.Context, sku string) jumpseller.MatchResult
}

type Applier interface {
	Apply(ctx context.Context, productID int64, price, date string) jumpseller.ApplyResult
}

const (
	msgMissingID       = "missing-jumpseller-id"
	msgInvalidPrice    = "invalid-price"
	msgInvalidDate     = "invalid-date"
	msgNothingToUpdate = "nothing-to-update"
)

type Reconciler struct {
	matcher     Matcher
	applier     Applier
	aliases     spreadsheet.FieldAliases
	concurrency int
}

// New builds a Reconciler. concurrency bounds how many rows talk to the
// remote API at once; 1 processes rows strictly one after another.
func New(matcher Matcher, applier Applier, aliases spreadsheet.FieldAliases, concurrency int) *Reconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{
		matcher:     matcher,
		applier:     applier,
		aliases:     aliases,
		concurrency: concurrency,
	}
}

// Preview normalizes and matches every row. It never writes.
func (r *Reconciler) Preview(ctx context.Context, rows []spreadsheet.Row) []models.PreviewRow {
	out := make([]models.PreviewRow, len(rows))
	r.each(len(rows), func(i int) {
		out[i] = r.previewRow(ctx, rows[i])
	})
	return out
}

// Confirm applies the echoed preview rows.
func (r *Reconciler) Confirm(ctx context.Context, rows []models.PreviewRow) []models.UpdateOutcome {
	out := make([]models.UpdateOutcome, len(rows))
	r.each(len(rows), func(i int) {
		out[i] = r.confirmRow(ctx, rows[i])
	})
	return out
}

func (r *Reconciler) each(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reconciler) previewRow(ctx context.Context, row spreadsheet.Row) models.PreviewRow {
	rec := spreadsheet.Normalize(row, r.aliases)

	pr := models.PreviewRow{
		Row:      rec.Line,
		SKU:      rec.SKU,
		PriceNew: rec.Price,
		DateNew:  rec.Date,
	}

	if rec.SKUError != spreadsheet.SKUValid {
		pr.APIStatus = models.APIStatusSkipped
		pr.ErrorCodInt = string(rec.SKUError)
		return pr
	}

	res := r.matcher.Match(ctx, rec.SKU)
	if !res.Found() {
		pr.APIStatus = string(res.Reason)
		pr.Suggestion = res.Suggestion
		if res.Err != nil {
			zap.L().Warn("sku lookup failed", zap.String("sku", rec.SKU), zap.Int("row", rec.Line), zap.Error(res.Err))
		}
		return pr
	}

	id := res.Product.ID
	pr.JumpsellerID = &id
	pr.ProductName = res.Product.Name
	pr.APIStatus = models.APIStatusFound
	return pr
}

func (r *Reconciler) confirmRow(ctx context.Context, row models.PreviewRow) models.UpdateOutcome {
	sku := strings.TrimSpace(row.SKU)

	if row.JumpsellerID == nil || *row.JumpsellerID <= 0 {
		return skipped(sku, msgMissingID)
	}
	id := *row.JumpsellerID

	// rows may have been edited client side, so both values are checked again
	price := ""
	if strings.TrimSpace(row.PriceNew) != "" {
		var ok bool
		if price, ok = spreadsheet.ParsePrice(row.PriceNew); !ok {
			return skipped(sku, msgInvalidPrice)
		}
	}

	date := ""
	if strings.TrimSpace(row.DateNew) != "" {
		date = spreadsheet.FormatDate(row.DateNew, false)
		if !spreadsheet.IsCanonicalDate(date) {
			return skipped(sku, msgInvalidDate)
		}
	}

	if price == "" && date == "" {
		return skipped(sku, msgNothingToUpdate)
	}

	res := r.applier.Apply(ctx, id, price, date)
	return outcome(sku, id, price, date, res)
}

func skipped(sku, msg string) models.UpdateOutcome {
	return models.UpdateOutcome{SKU: sku, OK: false, Status: models.StatusSkipped, Message: msg}
}

func outcome(sku string, id int64, price, date string, res jumpseller.ApplyResult) models.UpdateOutcome {
	data := &models.UpdateData{
		JumpsellerID: id,
		Price:        price,
		Date:         date,
		PriceOK:      res.PriceOK,
		DateOK:       res.DateOK,
		Verified:     res.Verified,
	}
	var msgs []string
	if res.PriceErr != nil {
		data.PriceError = res.PriceErr.Error()
		msgs = append(msgs, "price: "+data.PriceError)
	}
	if res.DateErr != nil {
		data.DateError = res.DateErr.Error()
		msgs = append(msgs, "date: "+data.DateError)
	}

	o := models.UpdateOutcome{SKU: sku, OK: res.OK(), Data: data}

	attempted, succeeded := 0, 0
	for _, op := range []struct{ attempted, ok bool }{
		{res.PriceAttempted, res.PriceOK},
		{res.DateAttempted, res.DateOK},
	} {
		if op.attempted {
			attempted++
			if op.ok {
				succeeded++
			}
		}
	}

	switch {
	case len(res.Mismatch) > 0:
		o.Status = models.StatusNotReflected
		msgs = append(msgs, "write accepted but not reflected: "+strings.Join(res.Mismatch, ", "))
	case succeeded == attempted:
		o.Status = models.StatusUpdated
	case succeeded == 0:
		o.Status = models.StatusFailed
	default:
		o.Status = models.StatusPartial
	}

	o.Message = strings.Join(msgs, "; ")
	return o
}
