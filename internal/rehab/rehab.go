// Package rehab implements the rehab cost calculator: a square-footage base
// estimate plus a set of toggleable line items, persisted per property
// address. It owns the rehab record schema and the migration applied when an
// older record is loaded.
package rehab

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/jmreiser/dealcalc/pkg/constants"
	"go.uber.org/zap"
)

// Catalog item names. HVAC is the only item priced as a flat amount; every
// other item is $/sf.
const (
	ItemRoof     = "Roof"
	ItemSiding   = "Siding"
	ItemHVAC     = "HVAC"
	ItemRewiring = "Rewiring"
	ItemRepiping = "Repiping"
	ItemFlooring = "Flooring"
)

// Scope selects the base $/sf rate tier.
const (
	ScopeLight = "light"
	ScopeMid   = "mid"
	ScopeGut   = "gut"
)

var (
	// ErrEmptyAddress is returned when saving or deleting without an address.
	ErrEmptyAddress = errors.New("address is required")

	// ErrNotFound is returned when no project exists for an address.
	ErrNotFound = errors.New("no saved project for address")
)

// LineItem is a single toggleable rehab category. Rate applies to all
// non-HVAC items ($/sf); Cost applies only to HVAC (flat $). The inactive
// field is carried for schema compatibility but ignored.
type LineItem struct {
	ID       int
	Name     string
	Included bool
	Rate     float64
	Cost     float64
}

// BreakdownRow is one included line item with a non-zero contribution.
type BreakdownRow struct {
	Name   string
	Amount float64
}

// Catalog returns the default line items in display order.
func Catalog() []LineItem {
	return []LineItem{
		{ID: 1, Name: ItemRoof},
		{ID: 2, Name: ItemSiding},
		{ID: 3, Name: ItemHVAC},
		{ID: 4, Name: ItemRewiring},
		{ID: 5, Name: ItemRepiping},
		{ID: 6, Name: ItemFlooring},
	}
}

// RateForScope maps a scope tier to its base rehab rate in $/sf. Unrecognized
// scopes fall back to the light rate.
func RateForScope(scope string) float64 {
	switch scope {
	case ScopeMid:
		return 20
	case ScopeGut:
		return 45
	default:
		return 10
	}
}

// Engine holds the live calculator state for one rehab project.
type Engine struct {
	Address string
	SF      float64
	Scope   string

	// Confirm guards destructive operations. A nil hook counts as confirmed;
	// the CLI wires an interactive prompt here.
	Confirm func(prompt string) bool

	items  []LineItem
	store  *store.Store
	logger *zap.Logger
}

// NewEngine creates an engine with the default catalog backed by st.
func NewEngine(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Scope:  ScopeLight,
		items:  Catalog(),
		store:  st,
		logger: logger,
	}
}

// Items returns a copy of the current line items.
func (e *Engine) Items() []LineItem {
	out := make([]LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// SetItems replaces the line items wholesale with the caller's list. Items
// carried over from an older save survive untouched; catalog items the caller
// omitted are merged back in with default values, as on load.
func (e *Engine) SetItems(items []LineItem) {
	merged := make([]LineItem, len(items))
	copy(merged, items)
	e.items = mergeCatalog(merged)
}

// SetItemIncluded toggles one item by id; unknown ids are a no-op.
func (e *Engine) SetItemIncluded(id int, included bool) {
	for i := range e.items {
		if e.items[i].ID == id {
			e.items[i].Included = included
			return
		}
	}
}

// SetItemRate updates one item's $/sf rate by id; unknown ids are a no-op.
func (e *Engine) SetItemRate(id int, rate float64) {
	for i := range e.items {
		if e.items[i].ID == id {
			e.items[i].Rate = rate
			return
		}
	}
}

// SetItemCost updates one item's flat cost by id; unknown ids are a no-op.
func (e *Engine) SetItemCost(id int, cost float64) {
	for i := range e.items {
		if e.items[i].ID == id {
			e.items[i].Cost = cost
			return
		}
	}
}

// Clear resets every toggle and flat cost along with the square-footage
// estimator. Item rates survive so a re-toggled item keeps its last rate.
func (e *Engine) Clear() {
	for i := range e.items {
		e.items[i].Included = false
		e.items[i].Cost = 0
	}
	e.SF = 0
	e.Scope = ScopeLight
}

// BaseRehab is the square-footage estimate: sf times the scope's $/sf rate.
func (e *Engine) BaseRehab() float64 {
	return e.SF * RateForScope(e.Scope)
}

// TogglesTotal sums the included line items: HVAC contributes its flat cost,
// everything else contributes rate times square footage.
func (e *Engine) TogglesTotal() float64 {
	var sum float64
	for _, it := range e.items {
		if !it.Included {
			continue
		}
		if it.Name == ItemHVAC {
			sum += it.Cost
		} else {
			sum += it.Rate * e.SF
		}
	}
	return sum
}

// Total is the full rehab estimate: base plus toggles.
func (e *Engine) Total() float64 {
	return e.BaseRehab() + e.TogglesTotal()
}

// Breakdown lists each included item with a positive contribution.
func (e *Engine) Breakdown() []BreakdownRow {
	var rows []BreakdownRow
	for _, it := range e.items {
		if !it.Included {
			continue
		}
		amount := it.Rate * e.SF
		if it.Name == ItemHVAC {
			amount = it.Cost
		}
		if amount > 0 {
			rows = append(rows, BreakdownRow{Name: it.Name, Amount: amount})
		}
	}
	return rows
}

// Snapshot captures the live state as a persistable record. The active value
// field is written per item: cost for HVAC, rate for everything else.
func (e *Engine) Snapshot() Record {
	items := make([]StoredItem, 0, len(e.items))
	for _, it := range e.items {
		li := it
		si := StoredItem{
			ID:       &li.ID,
			Name:     &li.Name,
			Included: &li.Included,
		}
		if li.Name == ItemHVAC {
			si.Cost = &li.Cost
		} else {
			si.Rate = &li.Rate
		}
		items = append(items, si)
	}
	return Record{
		Items: items,
		Meta:  Meta{SF: e.SF, Scope: e.Scope},
	}
}

// Save stores the current state as a full snapshot under the trimmed address,
// replacing any prior record for that address.
func (e *Engine) Save(address string) error {
	key := strings.TrimSpace(address)
	if key == "" {
		return ErrEmptyAddress
	}

	projects := e.readAll()
	projects[key] = e.Snapshot()
	if err := e.store.Write(constants.RehabStore, projects); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	e.Address = key
	e.logger.Debug("saved rehab project",
		zap.String("op", "rehab.Save"),
		zap.String("address", key),
	)
	return nil
}

// Load replaces the live state with the stored record for the address,
// applying the schema migration merge. Meta defaults to sf=0, scope=light
// when absent from the record.
func (e *Engine) Load(address string) error {
	projects := e.readAll()
	rec, ok := projects[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	e.Address = address
	e.items = MigrateItems(rec.Items)
	e.SF = rec.Meta.SF
	e.Scope = rec.Meta.Scope
	if e.Scope == "" {
		e.Scope = ScopeLight
	}
	return nil
}

// Delete removes the stored record for the address. Deletion is irreversible,
// so the confirm hook runs before the store is touched.
func (e *Engine) Delete(address string) error {
	key := strings.TrimSpace(address)
	if key == "" {
		return ErrEmptyAddress
	}

	projects := e.readAll()
	if _, ok := projects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if e.Confirm != nil && !e.Confirm(fmt.Sprintf("Delete saved project for %q?", key)) {
		return nil
	}

	delete(projects, key)
	if err := e.store.Write(constants.RehabStore, projects); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// Addresses lists the saved project addresses in sorted order.
func (e *Engine) Addresses() []string {
	projects := e.readAll()
	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadAll returns the full address-keyed rehab store. Other engines use this
// for cross-calculator pulls.
func (e *Engine) ReadAll() map[string]Record {
	return e.readAll()
}

func (e *Engine) readAll() map[string]Record {
	projects := make(map[string]Record)
	e.store.Read(constants.RehabStore, &projects)
	return projects
}
