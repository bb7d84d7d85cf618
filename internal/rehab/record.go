package rehab

import "strconv"

// StoredItem is the persisted form of a line item. Fields are pointers so
// records written by older releases, where non-HVAC items carried their $/sf
// value in "cost" instead of "rate", can be told apart from records that
// simply stored a zero.
type StoredItem struct {
	ID       *int     `json:"id,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Included *bool    `json:"included,omitempty"`
	Rate     *float64 `json:"rate,omitempty"`
	Cost     *float64 `json:"cost,omitempty"`
}

// Meta carries the square-footage estimator state saved with a project.
type Meta struct {
	SF    float64 `json:"sf"`
	Scope string  `json:"scope"`
}

// Record is a full rehab project snapshot as stored under its address key.
type Record struct {
	Items []StoredItem `json:"items"`
	Meta  Meta         `json:"meta"`
}

// MigrateItems reconstructs live line items from a stored record, upgrading
// older schemas along the way: missing ids and names are synthesized from the
// item's position, a non-HVAC "cost" with no "rate" is read as the $/sf rate,
// and catalog items the record predates are appended with default values and
// ids greater than any stored id.
func MigrateItems(stored []StoredItem) []LineItem {
	merged := make([]LineItem, 0, len(stored))
	for idx, it := range stored {
		li := LineItem{
			ID:       idx + 1,
			Name:     itemName(idx),
			Included: false,
		}
		if it.ID != nil {
			li.ID = *it.ID
		}
		if it.Name != nil {
			li.Name = *it.Name
		}
		if it.Included != nil {
			li.Included = *it.Included
		}
		if it.Cost != nil {
			li.Cost = *it.Cost
		}
		switch {
		case it.Rate != nil:
			li.Rate = *it.Rate
		case li.Name != ItemHVAC && it.Cost != nil:
			// Legacy schema: the rate lived in "cost".
			li.Rate = *it.Cost
		}
		merged = append(merged, li)
	}

	return mergeCatalog(merged)
}

// mergeCatalog appends any catalog item missing from items, with default
// values and ids greater than any present id. An empty list yields the stock
// catalog.
func mergeCatalog(items []LineItem) []LineItem {
	have := make(map[string]bool, len(items))
	nextIDBase := 0
	for _, li := range items {
		have[li.Name] = true
		if li.ID > nextIDBase {
			nextIDBase = li.ID
		}
	}
	addIdx := 1
	for _, def := range Catalog() {
		if !have[def.Name] {
			def.ID = nextIDBase + addIdx
			addIdx++
			items = append(items, def)
		}
	}

	if len(items) == 0 {
		return Catalog()
	}
	return items
}

// ComputeTotalFromRecord computes a project's total rehab cost directly from
// its stored form, without reconstructing engine state. Other calculators use
// this when pulling a rehab figure; it must agree exactly with Engine.Total
// for the equivalent live state.
func ComputeTotalFromRecord(rec Record) float64 {
	sf := rec.Meta.SF
	total := sf * RateForScope(rec.Meta.Scope)
	for _, it := range rec.Items {
		if it.Included == nil || !*it.Included {
			continue
		}
		name := ""
		if it.Name != nil {
			name = *it.Name
		}
		if name == ItemHVAC {
			if it.Cost != nil {
				total += *it.Cost
			}
			continue
		}
		rate := 0.0
		switch {
		case it.Rate != nil:
			rate = *it.Rate
		case it.Cost != nil:
			rate = *it.Cost
		}
		total += rate * sf
	}
	return total
}

func itemName(idx int) string {
	return "Item " + strconv.Itoa(idx+1)
}
