package reconcile

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gotest.tools/assert"

	"pricesync/jumpseller"
	"pricesync/jumpseller/jumpsellertest"
	"pricesync/models"
	"pricesync/spreadsheet"
)

func newReconciler(t *testing.T, concurrency int) (*jumpsellertest.Server, *Reconciler) {
	t.Helper()
	srv := jumpsellertest.NewServer()
	t.Cleanup(srv.Close)

	client, err := jumpseller.NewClient(srv.Config())
	assert.NilError(t, err)

	r := New(jumpseller.NewMatcher(client), jumpseller.NewApplier(client, 0, true), spreadsheet.DefaultAliases(), concurrency)
	return srv, r
}

func row(line int, sku, price, date string) spreadsheet.Row {
	return spreadsheet.Row{Line: line, Cells: map[string]any{"cod.int": sku, "precio": price, "fecha": date}}
}

func TestPreview(t *testing.T) {
	srv, r := newReconciler(t, 1)
	srv.Add(models.RemoteProduct{ID: 42, SKU: "ABC-1", Name: "Widget"})
	srv.Add(models.RemoteProduct{ID: 43, SKU: "ABC-10", Name: "Widget 10"})

	preview := r.Preview(context.Background(), []spreadsheet.Row{
		row(2, "ABC-1", "1.234,56", "44927"),
		row(3, "AB#1", "10", "01/01/23"),
		row(4, "ABC-", "10", ""),
		row(5, "ZZZ-9", "abc", "tomorrow"),
	})
	assert.Equal(t, 4, len(preview))

	got := preview[0]
	assert.Equal(t, 2, got.Row)
	assert.Equal(t, "ABC-1", got.SKU)
	assert.Equal(t, "Widget", got.ProductName)
	assert.Equal(t, "1234.56", got.PriceNew)
	assert.Equal(t, "01/01/23", got.DateNew)
	assert.Equal(t, int64(42), *got.JumpsellerID)
	assert.Equal(t, models.APIStatusFound, got.APIStatus)
	assert.Equal(t, "", got.ErrorCodInt)

	assert.Equal(t, "invalid-characters", preview[1].ErrorCodInt)
	assert.Equal(t, models.APIStatusSkipped, preview[1].APIStatus)
	assert.Assert(t, preview[1].JumpsellerID == nil)

	// the remote search returns ABC-1 and ABC-10 for "ABC-", neither exact
	assert.Equal(t, string(jumpseller.ReasonNoExactMatch), preview[2].APIStatus)
	assert.Assert(t, preview[2].JumpsellerID == nil)
	assert.Assert(t, preview[2].Suggestion != "")

	assert.Equal(t, string(jumpseller.ReasonNoResults), preview[3].APIStatus)
	assert.Equal(t, "", preview[3].PriceNew)
	assert.Equal(t, "tomorrow", preview[3].DateNew)

	// validation failures never reach the remote
	for _, c := range srv.Calls() {
		assert.Assert(t, !strings.Contains(c, "AB#1"))
	}
	assert.Equal(t, 3, len(srv.Calls()))
}

func TestPreviewKeepsOrderUnderConcurrency(t *testing.T) {
	srv, r := newReconciler(t, 8)

	var rows []spreadsheet.Row
	for i := 0; i < 40; i++ {
		sku := fmt.Sprintf("SKU-%03d", i)
		srv.Add(models.RemoteProduct{ID: int64(1000 + i), SKU: sku, Name: sku})
		rows = append(rows, row(i+2, sku, "10", ""))
	}

	preview := r.Preview(context.Background(), rows)
	assert.Equal(t, len(rows), len(preview))
	for i, p := range preview {
		assert.Equal(t, fmt.Sprintf("SKU-%03d", i), p.SKU)
		assert.Equal(t, int64(1000+i), *p.JumpsellerID)
	}
}

func TestPreviewRemoteFailureIsPerRow(t *testing.T) {
	srv, r := newReconciler(t, 1)
	srv.OverrideSearch(func(q string) (int, any) {
		if q == "BAD-1" {
			return 500, map[string]string{"message": "boom"}
		}
		return 200, []any{map[string]any{"product": map[string]any{"id": 7, "sku": q, "name": "ok"}}}
	})

	preview := r.Preview(context.Background(), []spreadsheet.Row{
		row(2, "BAD-1", "1", ""),
		row(3, "GOOD-1", "1", ""),
	})
	assert.Equal(t, string(jumpseller.ReasonRemoteError), preview[0].APIStatus)
	assert.Equal(t, models.APIStatusFound, preview[1].APIStatus)
	assert.Equal(t, int64(7), *preview[1].JumpsellerID)
}

func TestConfirmEndToEnd(t *testing.T) {
	srv, r := newReconciler(t, 1)
	srv.Add(models.RemoteProduct{ID: 42, SKU: "ABC-1", Name: "Widget", Price: "10", Fields: []models.CustomField{
		{ID: 900, CustomFieldID: 5, Label: "Date"},
	}})

	preview := r.Preview(context.Background(), []spreadsheet.Row{row(2, "ABC-1", "1.234,56", "44927")})

	for attempt := 0; attempt < 2; attempt++ {
		results := r.Confirm(context.Background(), preview)
		assert.Equal(t, 1, len(results))

		res := results[0]
		assert.Equal(t, "ABC-1", res.SKU)
		assert.Equal(t, true, res.OK, res.Message)
		assert.Equal(t, models.StatusUpdated, res.Status)
		assert.Equal(t, true, res.Data.PriceOK)
		assert.Equal(t, true, res.Data.DateOK)
		assert.Equal(t, true, res.Data.Verified)

		p := srv.Product(42)
		assert.Equal(t, "1234.56", p.Price)
		assert.Equal(t, "01/01/23", p.Fields[0].Value)
	}
}

func TestConfirmRowIndependence(t *testing.T) {
	srv, r := newReconciler(t, 1)
	srv.Add(models.RemoteProduct{ID: 1, SKU: "NODATE", Price: "1"})
	srv.Add(models.RemoteProduct{ID: 2, SKU: "OK-2", Price: "1", Fields: []models.CustomField{{ID: 20, Label: "date"}}})
	srv.Add(models.RemoteProduct{ID: 3, SKU: "FAILS", Price: "1", Fields: []models.CustomField{{ID: 30, Label: "Date"}}})
	srv.FailPrice(3)

	id := func(v int64) *int64 { return &v }
	results := r.Confirm(context.Background(), []models.PreviewRow{
		{SKU: "NODATE", JumpsellerID: id(1), PriceNew: "5", DateNew: "01/01/23"},
		{SKU: "NOID", PriceNew: "5"},
		{SKU: "OK-2", JumpsellerID: id(2), PriceNew: "65,89", DateNew: "2/3/2024"},
		{SKU: "FAILS", JumpsellerID: id(3), PriceNew: "5", DateNew: "01/01/23"},
		{SKU: "BADPRICE", JumpsellerID: id(2), PriceNew: "five"},
		{SKU: "BADDATE", JumpsellerID: id(2), DateNew: "someday"},
		{SKU: "EMPTY", JumpsellerID: id(2)},
		{SKU: "GONE", JumpsellerID: id(404), PriceNew: "5"},
	})
	assert.Equal(t, 8, len(results))

	assert.Equal(t, models.StatusPartial, results[0].Status)
	assert.Equal(t, false, results[0].OK)
	assert.Equal(t, true, results[0].Data.PriceOK)
	assert.Equal(t, jumpseller.ErrDateFieldNotFound.Error(), results[0].Data.DateError)
	assert.Equal(t, "5", srv.Product(1).Price)

	assert.Equal(t, models.StatusSkipped, results[1].Status)
	assert.Equal(t, msgMissingID, results[1].Message)

	assert.Equal(t, models.StatusUpdated, results[2].Status)
	assert.Equal(t, "65.89", srv.Product(2).Price)
	assert.Equal(t, "02/03/24", srv.Product(2).Fields[0].Value)

	assert.Equal(t, models.StatusPartial, results[3].Status)
	assert.Equal(t, false, results[3].Data.PriceOK)
	assert.Equal(t, true, results[3].Data.DateOK)

	assert.Equal(t, msgInvalidPrice, results[4].Message)
	assert.Equal(t, msgInvalidDate, results[5].Message)
	assert.Equal(t, msgNothingToUpdate, results[6].Message)

	assert.Equal(t, models.StatusFailed, results[7].Status)
	assert.Equal(t, "GONE", results[7].SKU)
}

func TestConfirmReportsUnreflectedWrite(t *testing.T) {
	srv, r := newReconciler(t, 1)
	srv.Add(models.RemoteProduct{ID: 42, SKU: "ABC-1", Price: "10", Fields: []models.CustomField{{ID: 900, Label: "Date", Value: "31/12/22"}}})
	srv.DropFieldWrites()

	id := int64(42)
	results := r.Confirm(context.Background(), []models.PreviewRow{{SKU: "ABC-1", JumpsellerID: &id, PriceNew: "10", DateNew: "01/01/23"}})
	assert.Equal(t, models.StatusNotReflected, results[0].Status)
	assert.Equal(t, false, results[0].OK)
	assert.Assert(t, strings.Contains(results[0].Message, "not reflected"))
}
