package domain

import (
	"slices"
	"strings"
)

// Options returns the distinct keys with at least one fix whose timestamp year
// lies in [yearMin, yearMax], sorted by their text form. An inverted or
// out-of-range interval yields an empty result.
func Options(t *Table, yearMin, yearMax int) []Key {
	if yearMin > yearMax {
		return nil
	}

	seen := make(map[Key]struct{})
	var keys []Key
	for _, r := range t.records {
		y := r.Timestamp.Year()
		if y < yearMin || y > yearMax {
			continue
		}
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}

	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}
