package cowork

import (
	"sort"
)

// AggregateByStreet regroups cluster rows by street, merging rows coming from
// different complements. Each street table is deduplicated by composite CNPJ
// (first occurrence wins), stably ordered by the raw number text and has its
// missing display values filled with NotInformed.
func AggregateByStreet(clusters Clusters) map[string]DisplayTable {
	complements := make([]string, 0, len(clusters))
	for c := range clusters {
		complements = append(complements, c)
	}
	sort.Strings(complements)

	var streets []string
	byStreet := make(map[string]Table)
	for _, c := range complements {
		for _, rec := range clusters[c] {
			if _, ok := byStreet[rec.Street]; !ok {
				streets = append(streets, rec.Street)
			}
			byStreet[rec.Street] = append(byStreet[rec.Street], rec)
		}
	}

	result := make(map[string]DisplayTable, len(streets))
	for _, street := range streets {
		result[street] = buildDisplayTable(byStreet[street])
	}
	return result
}

func buildDisplayTable(t Table) DisplayTable {
	seen := make(map[string]bool, len(t))
	kept := make(Table, 0, len(t))
	ids := make([]string, 0, len(t))
	for _, rec := range t {
		id := rec.CNPJ()
		if seen[id] {
			continue
		}
		seen[id] = true
		kept = append(kept, rec)
		ids = append(ids, id)
	}

	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lessNumber(kept[order[a]].Number, kept[order[b]].Number)
	})

	out := make(DisplayTable, len(kept))
	for i, idx := range order {
		out[i] = newRow(kept[idx], ids[idx])
	}
	return out
}

// lessNumber orders street numbers byte-wise as text; missing numbers go last
func lessNumber(a, b string) bool {
	switch {
	case a == "":
		return false
	case b == "":
		return true
	}
	return a < b
}

// SortedStreets returns the street names of an aggregated result in ascending order
func SortedStreets(result map[string]DisplayTable) []string {
	streets := make([]string, 0, len(result))
	for s := range result {
		streets = append(streets, s)
	}
	sort.Strings(streets)
	return streets
}
