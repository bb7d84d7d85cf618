package maxoffer

import (
	"errors"
	"testing"

	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(afero.NewMemMapFs(), "data", nil)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	return st
}

func saveRehabProject(t *testing.T, st *store.Store, address string, sf float64, scope string) {
	t.Helper()
	e := rehab.NewEngine(st, nil)
	e.SF = sf
	e.Scope = scope
	if err := e.Save(address); err != nil {
		t.Fatalf("rehab Save(%s) error = %v", address, err)
	}
}

func TestComputeTiers(t *testing.T) {
	tiers := ComputeTiers(300000, 50000)

	if len(tiers) != 4 {
		t.Fatalf("ComputeTiers() returned %d tiers, expected 4", len(tiers))
	}

	tests := []struct {
		index                   int
		expectedLTV             float64
		expectedAmount          float64
		expectedOfferAfterRehab float64
	}{
		{index: 0, expectedLTV: 0.80, expectedAmount: 240000, expectedOfferAfterRehab: 190000},
		{index: 1, expectedLTV: 0.75, expectedAmount: 225000, expectedOfferAfterRehab: 175000},
		{index: 2, expectedLTV: 0.70, expectedAmount: 210000, expectedOfferAfterRehab: 160000},
		{index: 3, expectedLTV: 0.65, expectedAmount: 195000, expectedOfferAfterRehab: 145000},
	}

	for _, tt := range tests {
		tier := tiers[tt.index]
		if tier.LTV != tt.expectedLTV {
			t.Errorf("tier %d LTV = %v, expected %v", tt.index, tier.LTV, tt.expectedLTV)
		}
		if tier.Amount != tt.expectedAmount {
			t.Errorf("tier %d Amount = %v, expected %v", tt.index, tier.Amount, tt.expectedAmount)
		}
		if tier.OfferAfterRehab != tt.expectedOfferAfterRehab {
			t.Errorf("tier %d OfferAfterRehab = %v, expected %v", tt.index, tier.OfferAfterRehab, tt.expectedOfferAfterRehab)
		}
	}
}

func TestTiersAreNonIncreasing(t *testing.T) {
	tiers := ComputeTiers(412345.67, 31000)
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Amount > tiers[i-1].Amount {
			t.Errorf("tier amounts increased at index %d: %v > %v", i, tiers[i].Amount, tiers[i-1].Amount)
		}
		if tiers[i].OfferAfterRehab > tiers[i-1].OfferAfterRehab {
			t.Errorf("offers increased at index %d: %v > %v", i, tiers[i].OfferAfterRehab, tiers[i-1].OfferAfterRehab)
		}
	}
}

func TestNegativeOffersAreNotClamped(t *testing.T) {
	tiers := ComputeTiers(100000, 90000)
	if tiers[3].OfferAfterRehab != -25000 {
		t.Errorf("OfferAfterRehab = %v, expected -25000", tiers[3].OfferAfterRehab)
	}
}

func TestEngineTiersParseRawInput(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.ARV = "$300,000"
	e.Rehab = "50,000"

	tiers := e.Tiers()
	if tiers[0].OfferAfterRehab != 190000 {
		t.Errorf("Tiers()[0].OfferAfterRehab = %v, expected 190000", tiers[0].OfferAfterRehab)
	}
}

func TestSaveRequiresAddress(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.ARV = "300000"
	if err := e.Save(); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("Save() error = %v, expected ErrEmptyAddress", err)
	}
	if len(e.Projects()) != 0 {
		t.Errorf("failed save mutated the store")
	}
}

func TestSaveUpsertsByNormalizedAddress(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.Address = "1219 Claremont St"
	e.ARV = "300000"
	if err := e.Save(); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	firstID := e.SelectedID

	// Same address, different case and padding: replaces, keeps the id.
	e.Address = "  1219 CLAREMONT st "
	e.ARV = "310000"
	if err := e.Save(); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	projects := e.Projects()
	if len(projects) != 1 {
		t.Fatalf("upsert produced %d records, expected 1", len(projects))
	}
	if projects[0].ID != firstID {
		t.Errorf("upsert changed id from %d to %d", firstID, projects[0].ID)
	}
	if projects[0].ARV != "310000" {
		t.Errorf("upsert kept stale ARV %q", projects[0].ARV)
	}
}

func TestNewRecordsArePrepended(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.Address = "111 First St"
	if err := e.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	e.ResetForm()
	e.Address = "222 Second St"
	if err := e.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	projects := e.Projects()
	if projects[0].Address != "222 Second St" {
		t.Errorf("most recent save is not first: %v", projects[0].Address)
	}
}

func TestLoadAndDelete(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.Address = "42 Load Ln"
	e.ARV = "250000"
	e.Rehab = "40000"
	e.RehabFrom = "42 Load Ln"
	if err := e.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	id := e.SelectedID

	other := NewEngine(e.store, nil)
	if err := other.Load(id); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if other.ARV != "250000" || other.Rehab != "40000" || other.RehabFrom != "42 Load Ln" {
		t.Errorf("Load() restored %q/%q/%q", other.ARV, other.Rehab, other.RehabFrom)
	}

	if err := other.Load(id + 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(unknown) error = %v, expected ErrNotFound", err)
	}

	if err := other.Delete(id + 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, expected ErrNotFound", err)
	}
	if len(other.Projects()) != 1 {
		t.Errorf("Delete(unknown) mutated the store")
	}

	if err := other.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(other.Projects()) != 0 {
		t.Errorf("Delete() left the record behind")
	}
	if other.SelectedID != 0 {
		t.Errorf("Delete() kept the selection %d", other.SelectedID)
	}
}

func TestPullRehabByAddressMatch(t *testing.T) {
	st := newTestStore(t)
	// sf 1000 at mid scope: total 20000.
	saveRehabProject(t, st, "1219 Claremont St", 1000, "mid")

	e := NewEngine(st, nil)
	e.Address = " 1219 claremont st "
	if err := e.PullRehab(""); err != nil {
		t.Fatalf("PullRehab() error = %v", err)
	}
	if e.Rehab != "20000" {
		t.Errorf("PullRehab() set rehab = %q, expected \"20000\"", e.Rehab)
	}
	if e.RehabFrom != "1219 Claremont St" {
		t.Errorf("PullRehab() set rehabFrom = %q", e.RehabFrom)
	}
}

func TestPullRehabExplicitPickWins(t *testing.T) {
	st := newTestStore(t)
	saveRehabProject(t, st, "111 First St", 100, "light")
	saveRehabProject(t, st, "222 Second St", 200, "light")

	e := NewEngine(st, nil)
	e.Address = "111 First St"
	if err := e.PullRehab("222 Second St"); err != nil {
		t.Fatalf("PullRehab(pick) error = %v", err)
	}
	if e.Rehab != "2000" {
		t.Errorf("PullRehab(pick) set rehab = %q, expected \"2000\"", e.Rehab)
	}
	if e.RehabFrom != "222 Second St" {
		t.Errorf("PullRehab(pick) set rehabFrom = %q", e.RehabFrom)
	}
}

func TestPullRehabNoMatchLeavesStateUnchanged(t *testing.T) {
	st := newTestStore(t)
	saveRehabProject(t, st, "111 First St", 100, "light")

	e := NewEngine(st, nil)
	e.Address = "999 Nowhere Ln"
	e.Rehab = "12345"
	e.RehabFrom = "old tag"

	if err := e.PullRehab(""); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("PullRehab() error = %v, expected ErrNoMatch", err)
	}
	if e.Rehab != "12345" || e.RehabFrom != "old tag" {
		t.Errorf("failed pull mutated state: rehab=%q rehabFrom=%q", e.Rehab, e.RehabFrom)
	}
}

func TestPullRehabEmptyStore(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.Address = "111 First St"
	if err := e.PullRehab(""); !errors.Is(err, ErrNoMatch) {
		t.Errorf("PullRehab() on empty store error = %v, expected ErrNoMatch", err)
	}
}

func TestClearValuesVersusResetForm(t *testing.T) {
	e := NewEngine(newTestStore(t), nil)
	e.Address = "42 Context Ct"
	e.ARV = "300000"
	e.Rehab = "50000"
	e.RehabFrom = "42 Context Ct"
	e.SelectedID = 7

	e.ClearValues()
	if e.ARV != "" || e.Rehab != "" {
		t.Errorf("ClearValues() left inputs %q/%q", e.ARV, e.Rehab)
	}
	if e.Address != "42 Context Ct" || e.RehabFrom != "42 Context Ct" || e.SelectedID != 7 {
		t.Errorf("ClearValues() dropped context: %q %q %d", e.Address, e.RehabFrom, e.SelectedID)
	}

	e.ARV = "300000"
	e.ResetForm()
	if e.ARV != "" || e.Rehab != "" || e.Address != "" || e.RehabFrom != "" || e.SelectedID != 0 {
		t.Errorf("ResetForm() left state behind: %+v", e)
	}
}

func TestRehabFromSurvivesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	e := NewEngine(st, nil)
	e.Address = "9 Provenance Pl"
	e.RehabFrom = "some deleted project"
	if err := e.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The tag is a weak reference: it stays stale until the next pull, even
	// though nothing named "some deleted project" exists.
	other := NewEngine(st, nil)
	if err := other.Load(e.SelectedID); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if other.RehabFrom != "some deleted project" {
		t.Errorf("provenance tag lost in round trip: %q", other.RehabFrom)
	}
}
