package jumpseller

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"gotest.tools/assert"

	"pricesync/jumpseller/jumpsellertest"
	"pricesync/models"
)

type stubSearcher struct {
	products []models.RemoteProduct
	err      error
	queries  []string
}

func (s *stubSearcher) SearchProducts(_ context.Context, q string) ([]models.RemoteProduct, error) {
	s.queries = append(s.queries, q)
	return s.products, s.err
}

func TestMatchPrefersExactOverFirst(t *testing.T) {
	stub := &stubSearcher{products: []models.RemoteProduct{
		{ID: 1, SKU: "ABC1"},
		{ID: 2, SKU: "ABC"},
	}}

	res := NewMatcher(stub).Match(context.Background(), "ABC")
	assert.Equal(t, true, res.Found())
	assert.Equal(t, int64(2), res.Product.ID)
	assert.Equal(t, ReasonNone, res.Reason)
}

func TestMatchCaseAndSpaceInsensitive(t *testing.T) {
	stub := &stubSearcher{products: []models.RemoteProduct{{ID: 9, SKU: " abc-1 "}}}

	res := NewMatcher(stub).Match(context.Background(), " ABC-1")
	assert.Equal(t, true, res.Found())
	assert.Equal(t, int64(9), res.Product.ID)
	assert.Equal(t, "ABC-1", stub.queries[0])
}

func TestMatchInexactOnlyIsNotFound(t *testing.T) {
	stub := &stubSearcher{products: []models.RemoteProduct{
		{ID: 1, SKU: "ABC10"},
		{ID: 2, SKU: "ABC1"},
	}}

	res := NewMatcher(stub).Match(context.Background(), "ABC")
	assert.Equal(t, false, res.Found())
	assert.Equal(t, ReasonNoExactMatch, res.Reason)
	assert.Equal(t, "ABC1", res.Suggestion)
}

func TestMatchNoResultsAndErrors(t *testing.T) {
	res := NewMatcher(&stubSearcher{}).Match(context.Background(), "ABC")
	assert.Equal(t, ReasonNoResults, res.Reason)

	boom := errors.New("boom")
	res = NewMatcher(&stubSearcher{err: boom}).Match(context.Background(), "ABC")
	assert.Equal(t, ReasonRemoteError, res.Reason)
	assert.Equal(t, boom, res.Err)
}

func TestMatchAgainstServer(t *testing.T) {
	srv := jumpsellertest.NewServer()
	defer srv.Close()
	srv.Add(models.RemoteProduct{ID: 41, SKU: "ABC-10", Name: "Ten"})
	srv.Add(models.RemoteProduct{ID: 42, SKU: "ABC-1", Name: "One"})

	client, err := NewClient(srv.Config())
	assert.NilError(t, err)

	res := NewMatcher(client).Match(context.Background(), "abc-1")
	assert.Equal(t, true, res.Found())
	assert.Equal(t, int64(42), res.Product.ID)
	assert.Equal(t, "One", res.Product.Name)

	srv.OverrideSearch(func(string) (int, any) { return http.StatusBadGateway, map[string]string{"message": "down"} })
	res = NewMatcher(client).Match(context.Background(), "ABC-1")
	assert.Equal(t, ReasonRemoteError, res.Reason)

	var se *StatusError
	assert.Equal(t, true, errors.As(res.Err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}
