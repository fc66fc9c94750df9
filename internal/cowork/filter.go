package cowork

import (
	"strings"
)

// FindOccupancyClusters narrows records to a neighborhood and cascades through
// complement, street and number, keeping every (complement, street, number)
// group with more than one record.
//
// The neighborhood must already use the casing of the data. Complement groups
// match by case-insensitive substring, so one record may land in several of
// them. Records with a missing street or number never qualify. An unknown
// neighborhood yields an empty result.
func FindOccupancyClusters(records []Record, neighborhood string) Clusters {
	regional := filterNeighborhood(records, neighborhood)
	clusters := make(Clusters)
	if len(regional) == 0 {
		return clusters
	}

	folded := make([]string, len(regional))
	for i, rec := range regional {
		folded[i] = strings.ToUpper(rec.Complement)
	}

	complements, _ := partition(regional, func(r Record) string { return r.Complement })
	for _, complement := range complements {
		level1 := filterComplement(regional, folded, complement)

		var qualifying Table
		streets, byStreet := partition(level1, func(r Record) string { return r.Street })
		for _, street := range streets {
			if street == "" {
				continue
			}
			numbers, byNumber := partition(byStreet[street], func(r Record) string { return r.Number })
			for _, number := range numbers {
				if number == "" {
					continue
				}
				if level3 := byNumber[number]; len(level3) > 1 {
					qualifying = append(qualifying, level3...)
				}
			}
		}

		if len(qualifying) > 0 {
			clusters[complement] = qualifying
		}
	}

	return clusters
}

func filterNeighborhood(records []Record, neighborhood string) Table {
	var out Table
	for _, rec := range records {
		if rec.Neighborhood == neighborhood {
			out = append(out, rec)
		}
	}
	return out
}

// filterComplement selects records whose upper-cased complement contains the
// upper-cased value. The empty value selects only records without complement.
func filterComplement(regional Table, folded []string, complement string) Table {
	var out Table
	if complement == "" {
		for _, rec := range regional {
			if rec.Complement == "" {
				out = append(out, rec)
			}
		}
		return out
	}

	needle := strings.ToUpper(complement)
	for i, rec := range regional {
		if rec.Complement != "" && strings.Contains(folded[i], needle) {
			out = append(out, rec)
		}
	}
	return out
}

// partition splits t by key, returning distinct keys in first-appearance order
func partition(t Table, key func(Record) string) ([]string, map[string]Table) {
	var keys []string
	groups := make(map[string]Table)
	for _, rec := range t {
		k := key(rec)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], rec)
	}
	return keys, groups
}
