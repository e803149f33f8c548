package pipeline

import (
	"github.com/pmezard/go-difflib/difflib"

	"fitout/internal"
	"fitout/internal/catalog"
	"fitout/internal/util"
)

type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultProfile().MatchThreshold
	}
	return &Matcher{threshold: threshold}
}

// NameSimilarity scores two item names on their normalized forms via the
// SequenceMatcher ratio over characters. Only identical normalized names
// reach exactly 1.0.
func NameSimilarity(a, b string) float64 {
	na := util.NormalizeName(a)
	nb := util.NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return difflib.NewMatcher(splitRunes(na), splitRunes(nb)).Ratio()
}

func splitRunes(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// MatchCatalogs pairs every base item with its closest counterpart from
// each other supplier. Candidates below the threshold are ignored and only
// a strictly better score replaces the current best, so equal scores keep
// the candidate seen first.
func (m *Matcher) MatchCatalogs(base internal.SupplierCatalog, others []internal.SupplierCatalog) []internal.MatchGroup {
	indexes := make([]*catalog.Index, len(others))
	for i, other := range others {
		if other.Supplier == base.Supplier {
			continue
		}
		indexes[i] = catalog.BuildIndex(other.Items)
	}

	groups := make([]internal.MatchGroup, 0, len(base.Items))
	for _, item := range base.Items {
		group := internal.MatchGroup{Base: item, Matches: map[string]internal.ScoredItem{}}
		for i, other := range others {
			if indexes[i] == nil {
				continue
			}
			if best, ok := m.bestName(item.ItemName, indexes[i]); ok {
				group.Matches[other.Supplier] = best
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// MatchName returns the closest catalog item to the given display name, or
// false when nothing reaches the threshold.
func (m *Matcher) MatchName(name string, items []internal.CatalogItem) (internal.ScoredItem, bool) {
	return m.bestName(name, catalog.BuildIndex(items))
}

func (m *Matcher) bestName(name string, idx *catalog.Index) (internal.ScoredItem, bool) {
	norm := util.NormalizeName(name)
	if norm == "" {
		return internal.ScoredItem{}, false
	}

	// exact normalized hit short-circuits the fuzzy scan; the first item
	// under that name is also what a full scan would keep
	if hits := idx.ByName[norm]; len(hits) > 0 && m.threshold <= 1 {
		return internal.ScoredItem{Item: hits[0], Score: 1}, true
	}

	var best internal.ScoredItem
	found := false
	for _, cand := range idx.Items {
		score := NameSimilarity(name, cand.ItemName)
		if score < m.threshold {
			continue
		}
		if !found || score > best.Score {
			best = internal.ScoredItem{Item: cand, Score: score}
			found = true
		}
	}
	return best, found
}
