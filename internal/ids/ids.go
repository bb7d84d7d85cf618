// Package ids generates record identifiers for the ordered project stores.
package ids

import "time"

// Next returns an identifier greater than every existing id. Ids are based on
// the current unix-millisecond clock so they sort by creation time, but are
// bumped past the existing maximum so back-to-back saves within the same
// millisecond still get distinct values. Ids are assigned once at creation
// and stay stable across edits.
func Next(existing ...int64) int64 {
	id := time.Now().UnixMilli()
	for _, e := range existing {
		if e >= id {
			id = e + 1
		}
	}
	return id
}
