// Package profit implements the flip profit calculator: gross/net profit and
// margin from purchase, ARV, rehab, transaction, financing and carrying
// costs. ARV and rehab can be pulled from the other calculators' saved
// projects.
package profit

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmreiser/dealcalc/internal/ids"
	"github.com/jmreiser/dealcalc/internal/lookup"
	"github.com/jmreiser/dealcalc/internal/maxoffer"
	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/jmreiser/dealcalc/pkg/constants"
	"github.com/jmreiser/dealcalc/pkg/parse"
	"go.uber.org/zap"
)

var (
	// ErrEmptyAddress is returned when saving without an address.
	ErrEmptyAddress = errors.New("address is required")

	// ErrNotFound is returned when no project exists for an id.
	ErrNotFound = errors.New("no saved project for id")

	// ErrNoMatch is returned when a cross-calculator pull resolves nothing.
	ErrNoMatch = errors.New("no matching project")
)

// Inputs are the raw deal parameters as typed by the user. Parsing to numbers
// happens at compute time so partially typed values never break anything.
type Inputs struct {
	ARV      string
	Purchase string
	Rehab    string

	ClosingBuyPct  string
	ClosingSellPct string
	ContingencyPct string

	CarryMonths      string
	UtilitiesMonthly string
	TaxesMonthly     string

	RateAPR            string
	PointsPct          string
	LTVPct             string
	LoanAmountOverride string
	NumDraws           string
	DrawFee            string
}

// Defaults are the input values a fresh or reset form starts from.
type Defaults struct {
	ClosingBuyPct  string
	ClosingSellPct string
	ContingencyPct string
	CarryMonths    string
	RateAPR        string
	PointsPct      string
	LTVPct         string
}

// StandardDefaults returns the stock form defaults: 2% buy-side closing, 6%
// sell-side closing, 10% contingency, 4 carry months, 12% APR, 2 points, 85%
// LTV.
func StandardDefaults() Defaults {
	return Defaults{
		ClosingBuyPct:  "2",
		ClosingSellPct: "6",
		ContingencyPct: "10",
		CarryMonths:    "4",
		RateAPR:        "12",
		PointsPct:      "2",
		LTVPct:         "85",
	}
}

// Record is one saved profit project.
type Record struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`

	ARV      string `json:"arv"`
	Purchase string `json:"purchase"`
	Rehab    string `json:"rehab"`

	ClosingBuyPct  string `json:"closingBuyPct"`
	ClosingSellPct string `json:"closingSellPct"`
	ContingencyPct string `json:"contingencyPct"`

	CarryMonths      string `json:"carryMonths"`
	UtilitiesMonthly string `json:"utilitiesMonthly"`
	TaxesMonthly     string `json:"taxesMonthly"`

	RateAPR            string `json:"rateAPR"`
	PointsPct          string `json:"pointsPct"`
	LTVPct             string `json:"ltvPct"`
	LoanAmountOverride string `json:"loanAmountOverride"`
	NumDraws           string `json:"numDraws"`
	DrawFee            string `json:"drawFee"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Breakdown is the full set of derived figures for one set of inputs.
type Breakdown struct {
	ARV      float64
	Purchase float64
	Rehab    float64

	ClosingBuyCost  float64
	ClosingSellCost float64
	ContingencyCost float64

	LoanAmount      float64
	PointsCost      float64
	MonthlyInterest float64
	InterestCost    float64
	DrawFees        float64
	UtilitiesCost   float64
	TaxesCost       float64

	BaseCosts         float64
	FinancingAndCarry float64
	TotalCosts        float64

	GrossProfit float64
	NetProfit   float64
	Margin      float64
	NetMargin   float64
}

// Compute derives every output figure from the raw inputs. Gross profit is
// ARV minus the base costs only; financing and carry come out afterwards, so
// property-level economics are visible before leverage costs.
func Compute(in Inputs) Breakdown {
	var b Breakdown
	b.ARV = parse.Amount(in.ARV)
	b.Purchase = parse.Amount(in.Purchase)
	b.Rehab = parse.Amount(in.Rehab)

	b.ClosingBuyCost = parse.Amount(in.ClosingBuyPct) / 100 * b.Purchase
	b.ClosingSellCost = parse.Amount(in.ClosingSellPct) / 100 * b.ARV
	b.ContingencyCost = parse.Amount(in.ContingencyPct) / 100 * b.Rehab

	// A positive manual loan amount always wins; otherwise the loan is
	// derived from purchase price and LTV.
	manualLoan := parse.Amount(in.LoanAmountOverride)
	if manualLoan > 0 {
		b.LoanAmount = manualLoan
	} else {
		b.LoanAmount = b.Purchase * parse.Amount(in.LTVPct) / 100
	}

	carryMonths := parse.Amount(in.CarryMonths)
	b.PointsCost = parse.Amount(in.PointsPct) / 100 * b.LoanAmount
	b.MonthlyInterest = b.LoanAmount * (parse.Amount(in.RateAPR) / 100 / constants.MonthsPerYear)
	b.InterestCost = b.MonthlyInterest * carryMonths
	b.DrawFees = parse.Amount(in.NumDraws) * parse.Amount(in.DrawFee)
	b.UtilitiesCost = parse.Amount(in.UtilitiesMonthly) * carryMonths
	b.TaxesCost = parse.Amount(in.TaxesMonthly) * carryMonths

	b.BaseCosts = b.Purchase + b.Rehab + b.ClosingBuyCost + b.ClosingSellCost + b.ContingencyCost
	b.FinancingAndCarry = b.PointsCost + b.InterestCost + b.DrawFees + b.UtilitiesCost + b.TaxesCost
	b.TotalCosts = b.BaseCosts + b.FinancingAndCarry

	b.GrossProfit = b.ARV - b.BaseCosts
	b.NetProfit = b.GrossProfit - b.FinancingAndCarry
	if b.ARV > 0 {
		b.Margin = b.GrossProfit / b.ARV
		b.NetMargin = b.NetProfit / b.ARV
	}
	return b
}

// Engine holds the live calculator state for one profit analysis.
type Engine struct {
	Address    string
	Inputs     Inputs
	SelectedID int64

	// Confirm guards destructive operations; nil counts as confirmed.
	Confirm func(prompt string) bool

	defaults Defaults
	store    *store.Store
	logger   *zap.Logger
}

// NewEngine creates an engine backed by st with the given form defaults.
func NewEngine(st *store.Store, defaults Defaults, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{defaults: defaults, store: st, logger: logger}
	e.Reset()
	return e
}

// Compute derives the breakdown from the current inputs.
func (e *Engine) Compute() Breakdown {
	return Compute(e.Inputs)
}

// Reset clears the form back to the configured defaults and drops the
// selection.
func (e *Engine) Reset() {
	e.Address = ""
	e.SelectedID = 0
	e.Inputs = Inputs{
		ClosingBuyPct:    e.defaults.ClosingBuyPct,
		ClosingSellPct:   e.defaults.ClosingSellPct,
		ContingencyPct:   e.defaults.ContingencyPct,
		CarryMonths:      e.defaults.CarryMonths,
		UtilitiesMonthly: "0",
		TaxesMonthly:     "0",
		RateAPR:          e.defaults.RateAPR,
		PointsPct:        e.defaults.PointsPct,
		LTVPct:           e.defaults.LTVPct,
		NumDraws:         "0",
		DrawFee:          "0",
	}
}

// PullARV resolves a saved max-offer project and adopts its raw ARV. The
// max-offer store is ordered, so when neither a pick nor an address match
// resolves, the last record in store order is used.
func (e *Engine) PullARV(pick string) error {
	var projects []maxoffer.Record
	e.store.Read(constants.MaxOfferStore, &projects)

	rec, ok := lookup.Resolve(projects, func(r maxoffer.Record) string { return r.Address }, e.Address, pick)
	if !ok {
		return fmt.Errorf("%w: no max-offer projects", ErrNoMatch)
	}
	e.Inputs.ARV = rec.ARV
	e.logger.Debug("pulled ARV",
		zap.String("op", "profit.PullARV"),
		zap.String("from", rec.Address),
	)
	return nil
}

// PullRehab resolves a saved rehab project and adopts its computed total as
// the rehab figure. The rehab store is address-keyed, so there is no
// most-recent fallback.
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
		return fmt.Errorf("%w: no rehab projects", ErrNoMatch)
	}
	total := rehab.ComputeTotalFromRecord(projects[key])
	e.Inputs.Rehab = strconv.FormatFloat(total, 'f', -1, 64)
	e.logger.Debug("pulled rehab total",
		zap.String("op", "profit.PullRehab"),
		zap.String("from", key),
		zap.Float64("total", total),
	)
	return nil
}

// Save stores the current state. With a selection the matching record is
// replaced in place; otherwise a new record is appended and its fresh id
// adopted as the selection.
func (e *Engine) Save() error {
	addr := strings.TrimSpace(e.Address)
	if addr == "" {
		return ErrEmptyAddress
	}

	projects := e.readAll()
	entry := e.snapshot(addr)

	if e.SelectedID != 0 {
		entry.ID = e.SelectedID
		replaced := false
		for i, p := range projects {
			if p.ID == e.SelectedID {
				projects[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			projects = append(projects, entry)
		}
	} else {
		existing := make([]int64, 0, len(projects))
		for _, p := range projects {
			existing = append(existing, p.ID)
		}
		entry.ID = ids.Next(existing...)
		projects = append(projects, entry)
	}

	if err := e.store.Write(constants.ProfitStore, projects); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	e.SelectedID = entry.ID
	return nil
}

// Load restores the record with the matching id, falling back to the
// configured defaults for any field an older record left empty.
func (e *Engine) Load(id int64) error {
	for _, p := range e.readAll() {
		if p.ID == id {
			e.SelectedID = p.ID
			e.Address = p.Address
			e.Inputs = Inputs{
				ARV:                p.ARV,
				Purchase:           p.Purchase,
				Rehab:              p.Rehab,
				ClosingBuyPct:      orDefault(p.ClosingBuyPct, e.defaults.ClosingBuyPct),
				ClosingSellPct:     orDefault(p.ClosingSellPct, e.defaults.ClosingSellPct),
				ContingencyPct:     orDefault(p.ContingencyPct, e.defaults.ContingencyPct),
				CarryMonths:        orDefault(p.CarryMonths, e.defaults.CarryMonths),
				UtilitiesMonthly:   orDefault(p.UtilitiesMonthly, "0"),
				TaxesMonthly:       orDefault(p.TaxesMonthly, "0"),
				RateAPR:            orDefault(p.RateAPR, e.defaults.RateAPR),
				PointsPct:          orDefault(p.PointsPct, e.defaults.PointsPct),
				LTVPct:             orDefault(p.LTVPct, e.defaults.LTVPct),
				LoanAmountOverride: p.LoanAmountOverride,
				NumDraws:           orDefault(p.NumDraws, "0"),
				DrawFee:            orDefault(p.DrawFee, "0"),
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Delete removes the record with the matching id and resets the form. The
// confirm hook runs before the store is touched.
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
	if err := e.store.Write(constants.ProfitStore, projects); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	e.Reset()
	return nil
}

// Projects returns all saved records in store order.
func (e *Engine) Projects() []Record {
	return e.readAll()
}

func (e *Engine) snapshot(addr string) Record {
	in := e.Inputs
	return Record{
		Address:            addr,
		ARV:                in.ARV,
		Purchase:           in.Purchase,
		Rehab:              in.Rehab,
		ClosingBuyPct:      in.ClosingBuyPct,
		ClosingSellPct:     in.ClosingSellPct,
		ContingencyPct:     in.ContingencyPct,
		CarryMonths:        in.CarryMonths,
		UtilitiesMonthly:   in.UtilitiesMonthly,
		TaxesMonthly:       in.TaxesMonthly,
		RateAPR:            in.RateAPR,
		PointsPct:          in.PointsPct,
		LTVPct:             in.LTVPct,
		LoanAmountOverride: in.LoanAmountOverride,
		NumDraws:           in.NumDraws,
		DrawFee:            in.DrawFee,
		UpdatedAt:          time.Now().UTC(),
	}
}

func (e *Engine) readAll() []Record {
	var projects []Record
	e.store.Read(constants.ProfitStore, &projects)
	return projects
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
