package catalog

import (
	"fitout/internal"
	"fitout/internal/util"
)

// Index holds one supplier's items keyed by normalized name for exact-hit
// lookups. Items preserves catalog order, which is what makes first-seen
// tie-breaking in the matcher deterministic.
type Index struct {
	Items  []internal.CatalogItem
	ByName map[string][]internal.CatalogItem
}

func BuildIndex(items []internal.CatalogItem) *Index {
	idx := &Index{Items: items, ByName: map[string][]internal.CatalogItem{}}
	for _, item := range items {
		norm := util.NormalizeName(item.ItemName)
		if norm == "" {
			continue
		}
		idx.ByName[norm] = append(idx.ByName[norm], item)
	}
	return idx
}
