// Package maxoffer implements the maximum-allowable-offer calculator: offer
// figures at four fixed loan-to-value tiers, computed from an after-repair
// value and a rehab cost. The rehab cost can be typed directly or pulled from
// a saved rehab project.
package maxoffer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmreiser/dealcalc/internal/ids"
	"github.com/jmreiser/dealcalc/internal/lookup"
	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/jmreiser/dealcalc/pkg/constants"
	"github.com/jmreiser/dealcalc/pkg/parse"
	"go.uber.org/zap"
)

// LTVTiers is the fixed ordered set of loan-to-value ratios offers are
// computed at.
var LTVTiers = []float64{0.80, 0.75, 0.70, 0.65}

var (
	// ErrEmptyAddress is returned when saving without an address.
	ErrEmptyAddress = errors.New("address is required")

	// ErrNotFound is returned when no project exists for an id.
	ErrNotFound = errors.New("no saved project for id")

	// ErrNoMatch is returned when a cross-calculator pull resolves nothing.
	ErrNoMatch = errors.New("no matching rehab project")
)

// Record is one saved max-offer project. ARV and rehab are kept as the raw
// strings the user typed; parsing happens at compute time. RehabFrom is a
// weak back-reference recording which rehab project the figure was last
// pulled from; it is never resolved eagerly and may go stale.
type Record struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	ARV       string    `json:"arv"`
	Rehab     string    `json:"rehab"`
	RehabFrom string    `json:"rehabFrom,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tier is the offer math at one loan-to-value ratio. OfferAfterRehab may be
// negative; it is reported as-is.
type Tier struct {
	LTV             float64
	Amount          float64
	OfferAfterRehab float64
}

// ComputeTiers evaluates every LTV tier for the given figures.
func ComputeTiers(arv, rehabCost float64) []Tier {
	tiers := make([]Tier, 0, len(LTVTiers))
	for _, ltv := range LTVTiers {
		tiers = append(tiers, Tier{
			LTV:             ltv,
			Amount:          arv * ltv,
			OfferAfterRehab: arv*ltv - rehabCost,
		})
	}
	return tiers
}

// Engine holds the live calculator state.
type Engine struct {
	Address    string
	ARV        string
	Rehab      string
	RehabFrom  string
	SelectedID int64

	// Confirm guards destructive operations; nil counts as confirmed.
	Confirm func(prompt string) bool

	store  *store.Store
	logger *zap.Logger
}

// NewEngine creates an engine backed by st.
func NewEngine(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger}
}

// Tiers computes the LTV tiers from the current raw inputs.
func (e *Engine) Tiers() []Tier {
	return ComputeTiers(parse.Amount(e.ARV), parse.Amount(e.Rehab))
}

// PullRehab resolves a saved rehab project and adopts its computed total as
// the rehab cost. An explicit pick wins; otherwise the typed address is
// matched case-insensitively against the rehab store keys. The rehab store is
// address-keyed, so there is no most-recent fallback. On failure the engine
// state is left unchanged.
func (e *Engine) PullRehab(pick string) error {
	projects := make(map[string]rehab.Record)
	e.store.Read(constants.RehabStore, &projects)

	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key, ok := lookup.ResolveKey(keys, e.Address, pick)
	if !ok {
		return ErrNoMatch
	}

	total := rehab.ComputeTotalFromRecord(projects[key])
	e.Rehab = strconv.FormatFloat(total, 'f', -1, 64)
	e.RehabFrom = key
	e.logger.Debug("pulled rehab total",
		zap.String("op", "maxoffer.PullRehab"),
		zap.String("rehabFrom", key),
		zap.Float64("total", total),
	)
	return nil
}

// Save upserts the current state into the store. Records are matched by
// normalized address: an existing record keeps its id and has its fields
// replaced; a new record is prepended with a fresh id.
func (e *Engine) Save() error {
	addr := strings.TrimSpace(e.Address)
	if addr == "" {
		return ErrEmptyAddress
	}

	projects := e.readAll()
	payload := Record{
		Address:   addr,
		ARV:       e.ARV,
		Rehab:     e.Rehab,
		RehabFrom: e.RehabFrom,
		UpdatedAt: time.Now().UTC(),
	}

	idx := -1
	for i, p := range projects {
		if lookup.Normalize(p.Address) == lookup.Normalize(addr) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		payload.ID = projects[idx].ID
		projects[idx] = payload
	} else {
		existing := make([]int64, 0, len(projects))
		for _, p := range projects {
			existing = append(existing, p.ID)
		}
		payload.ID = ids.Next(existing...)
		projects = append([]Record{payload}, projects...)
	}

	if err := e.store.Write(constants.MaxOfferStore, projects); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	e.SelectedID = payload.ID
	return nil
}

// Load restores the record with the matching id into the live state.
func (e *Engine) Load(id int64) error {
	for _, p := range e.readAll() {
		if p.ID == id {
			e.SelectedID = p.ID
			e.Address = p.Address
			e.ARV = p.ARV
			e.Rehab = p.Rehab
			e.RehabFrom = p.RehabFrom
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Delete removes the record with the matching id. The confirm hook runs
// before the store is touched.
func (e *Engine) Delete(id int64) error {
	projects := e.readAll()
	idx := -1
	for i, p := range projects {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if e.Confirm != nil && !e.Confirm(fmt.Sprintf("Delete saved project for %q?", projects[idx].Address)) {
		return nil
	}

	projects = append(projects[:idx], projects[idx+1:]...)
	if err := e.store.Write(constants.MaxOfferStore, projects); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if e.SelectedID == id {
		e.SelectedID = 0
	}
	return nil
}

// ClearValues resets only the numeric inputs. The address, selection and
// provenance tag survive so context is kept while tweaking figures.
func (e *Engine) ClearValues() {
	e.ARV = ""
	e.Rehab = ""
}

// ResetForm clears everything: inputs, address, selection and provenance.
func (e *Engine) ResetForm() {
	e.ARV = ""
	e.Rehab = ""
	e.Address = ""
	e.SelectedID = 0
	e.RehabFrom = ""
}

// ClearProvenance drops the rehab source tag without touching the figures.
func (e *Engine) ClearProvenance() {
	e.RehabFrom = ""
}

// Projects returns all saved records in store order (most recent first).
func (e *Engine) Projects() []Record {
	return e.readAll()
}

func (e *Engine) readAll() []Record {
	var projects []Record
	e.store.Read(constants.MaxOfferStore, &projects)
	return projects
}
