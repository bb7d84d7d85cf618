// Package lookup implements the matching rule used when one calculator pulls
// a figure computed by another: an explicit pick wins, then an exact
// normalized-address match, then (for ordered stores only) the most recently
// appended record.
package lookup

import "strings"

// Normalize prepares an address for comparison by trimming whitespace and
// case-folding. Addresses differing only in case or padding refer to the same
// property.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve scans an ordered sequence of records for the desired address. When
// pick is non-empty it takes precedence and is matched exactly (normalized)
// against the candidates. Otherwise the first record whose normalized address
// equals the normalized desired address wins; failing that, the last-appended
// record is returned as long as the sequence is non-empty.
func Resolve[T any](records []T, addressOf func(T) string, address, pick string) (T, bool) {
	var zero T
	if len(records) == 0 {
		return zero, false
	}

	if pick != "" {
		want := Normalize(pick)
		for _, rec := range records {
			if Normalize(addressOf(rec)) == want {
				return rec, true
			}
		}
		return zero, false
	}

	if want := Normalize(address); want != "" {
		for _, rec := range records {
			if Normalize(addressOf(rec)) == want {
				return rec, true
			}
		}
	}

	return records[len(records)-1], true
}

// ResolveKey matches the desired address against the keys of an address-keyed
// mapping. Pick precedence and normalized matching work as in Resolve, but a
// mapping has no well-defined most-recent entry, so there is no fallback.
func ResolveKey(keys []string, address, pick string) (string, bool) {
	if pick != "" {
		want := Normalize(pick)
		for _, k := range keys {
			if Normalize(k) == want {
				return k, true
			}
		}
		return "", false
	}

	want := Normalize(address)
	if want == "" {
		return "", false
	}
	for _, k := range keys {
		if Normalize(k) == want {
			return k, true
		}
	}
	return "", false
}
