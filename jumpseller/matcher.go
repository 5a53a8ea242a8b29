package jumpseller

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"pricesync/models"
)

type NotFoundReason string

const (
	ReasonNone         NotFoundReason = ""
	ReasonNoResults    NotFoundReason = "no-results"
	ReasonNoExactMatch NotFoundReason = "no-exact-match"
	ReasonRemoteError  NotFoundReason = "remote-error"
)

// MatchResult is either a Product or a Reason. Suggestion is the closest
// inexact candidate, for humans only; it is never used as a match.
type MatchResult struct {
	Product    *models.RemoteProduct
	Reason     NotFoundReason
	Err        error
	Suggestion string
}

func (r MatchResult) Found() bool {
	return r.Product != nil
}

type Matcher struct {
	catalog Searcher
}

func NewMatcher(catalog Searcher) *Matcher {
	return &Matcher{catalog: catalog}
}

// Match looks sku up with one call to the search endpoint. Remote failures
// come back as a reason, never as a panic or an abort.
func (m *Matcher) Match(ctx context.Context, sku string) MatchResult {
	candidates, err := m.catalog.SearchProducts(ctx, strings.TrimSpace(sku))
	if err != nil {
		return MatchResult{Reason: ReasonRemoteError, Err: err}
	}
	if len(candidates) == 0 {
		return MatchResult{Reason: ReasonNoResults}
	}

	if p, ok := ExactMatch(candidates, sku); ok {
		return MatchResult{Product: &p}
	}

	return MatchResult{Reason: ReasonNoExactMatch, Suggestion: closest(sku, candidates)}
}

// ExactMatch returns the first candidate whose own SKU equals sku, ignoring
// case and surrounding spaces. The remote search is substring based, so
// position in the result list means nothing.
func ExactMatch(candidates []models.RemoteProduct, sku string) (models.RemoteProduct, bool) {
	want := strings.TrimSpace(sku)
	if want == "" {
		return models.RemoteProduct{}, false
	}
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.SKU), want) {
			return c, true
		}
	}
	return models.RemoteProduct{}, false
}

func closest(sku string, candidates []models.RemoteProduct) string {
	targets := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if s := strings.TrimSpace(c.SKU); s != "" {
			targets = append(targets, s)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(sku), targets)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
