// Package output provides utilities for formatting and displaying saved
// project summaries across the three calculators.
package output

import (
	"fmt"
	"sort"

	"github.com/jmreiser/dealcalc/internal/lookup"
	"github.com/jmreiser/dealcalc/internal/maxoffer"
	"github.com/jmreiser/dealcalc/internal/profit"
	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/pkg/parse"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row summarizes everything saved for one property address. Figures are nil
// when the corresponding calculator has no record for the address.
type Row struct {
	Address    string
	RehabTotal *float64
	BestOffer  *float64
	NetProfit  *float64
}

// BuildSummary joins the three stores on normalized address. The display
// address comes from whichever store saw the property first (rehab, then
// max-offer, then profit).
func BuildSummary(rehabs map[string]rehab.Record, offers []maxoffer.Record, profits []profit.Record) []Row {
	byAddr := make(map[string]*Row)
	row := func(address string) *Row {
		key := lookup.Normalize(address)
		if r, ok := byAddr[key]; ok {
			return r
		}
		r := &Row{Address: address}
		byAddr[key] = r
		return r
	}

	for addr, rec := range rehabs {
		total := rehab.ComputeTotalFromRecord(rec)
		row(addr).RehabTotal = &total
	}
	for _, p := range offers {
		tiers := maxoffer.ComputeTiers(parse.Amount(p.ARV), parse.Amount(p.Rehab))
		best := tiers[0].OfferAfterRehab
		row(p.Address).BestOffer = &best
	}
	for _, p := range profits {
		b := profit.Compute(profit.Inputs{
			ARV:                p.ARV,
			Purchase:           p.Purchase,
			Rehab:              p.Rehab,
			ClosingBuyPct:      p.ClosingBuyPct,
			ClosingSellPct:     p.ClosingSellPct,
			ContingencyPct:     p.ContingencyPct,
			CarryMonths:        p.CarryMonths,
			UtilitiesMonthly:   p.UtilitiesMonthly,
			TaxesMonthly:       p.TaxesMonthly,
			RateAPR:            p.RateAPR,
			PointsPct:          p.PointsPct,
			LTVPct:             p.LTVPct,
			LoanAmountOverride: p.LoanAmountOverride,
			NumDraws:           p.NumDraws,
			DrawFee:            p.DrawFee,
		})
		net := b.NetProfit
		row(p.Address).NetProfit = &net
	}

	rows := make([]Row, 0, len(byAddr))
	for _, r := range byAddr {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Address < rows[j].Address })
	return rows
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(rows []Row) {
	p := message.NewPrinter(language.English)
	fmt.Printf("Address                                  | Rehab Total   | Offer @80%%    | Net Profit\n")
	fmt.Printf("_______                                  | ___________   | __________    | __________\n")
	for _, row := range rows {
		_, _ = p.Printf("%-40s | %13s | %13s | %13s\n",
			row.Address, cell(p, row.RehabTotal), cell(p, row.BestOffer), cell(p, row.NetProfit))
	}
	if len(rows) == 0 {
		fmt.Printf("(no saved projects)\n")
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(rows []Row) {
	fmt.Printf("\"address\",\"rehab total\",\"offer at 80%% ltv\",\"net profit\"\n")
	for _, row := range rows {
		fmt.Printf("%q", row.Address)
		for _, v := range []*float64{row.RehabTotal, row.BestOffer, row.NetProfit} {
			if v == nil {
				fmt.Printf(",\"\"")
			} else {
				fmt.Printf(",\"%.2f\"", *v)
			}
		}
		fmt.Printf("\n")
	}
}

func cell(p *message.Printer, v *float64) string {
	if v == nil {
		return "-"
	}
	return p.Sprintf("$%.2f", *v)
}
