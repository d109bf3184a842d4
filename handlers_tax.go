package main

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type bracketsResponse struct {
	TaxYear       int             `json:"tax_year"`
	Jurisdiction  string          `json:"jurisdiction"`
	Income        decimal.Decimal `json:"income"`
	Fills         []BracketFill   `json:"fills"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	MarginalRate  decimal.Decimal `json:"marginal_rate"`
	AverageRate   decimal.Decimal `json:"average_rate"`
	ProvincialTax decimal.Decimal `json:"provincial_tax"`
}

// handleTaxBrackets fills the federal brackets for ?income=. A missing or unparsable
// income is treated as zero so the empty chart still renders.
func (a *App) handleTaxBrackets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	income := zero
	if s := r.URL.Query().Get("income"); s != "" {
		if d, err := parseDecimal(s); err == nil && !d.IsNegative() {
			income = d
		}
	}

	federal := a.rates.Tax.Federal
	fills := BracketBreakdown(income, federal)
	if fills == nil {
		fills = []BracketFill{}
	}
	tax := ComputeTax(income, federal)

	a.recordUse(w, r, "brackets")
	writeJSON(w, http.StatusOK, bracketsResponse{
		TaxYear:       federal.Year,
		Jurisdiction:  federal.Jurisdiction,
		Income:        cents(income),
		Fills:         fills,
		TotalTax:      cents(tax),
		MarginalRate:  MarginalRate(income, federal),
		AverageRate:   AverageRate(tax, income).Round(6),
		ProvincialTax: cents(ComputeTax(income, a.rates.Tax.Provincial)),
	})
}
