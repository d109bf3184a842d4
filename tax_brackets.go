package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxBracket is one slice of a progressive schedule. Rate is a fraction (0.205 for 20.5%).
// The top bracket of a table is Unbounded and its Max is ignored.
type TaxBracket struct {
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Rate      decimal.Decimal `json:"rate"`
	Unbounded bool            `json:"unbounded"`
}

// BracketTable is a validated schedule for one jurisdiction and tax year.
type BracketTable struct {
	Jurisdiction string       `json:"jurisdiction"`
	Year         int          `json:"year"`
	Brackets     []TaxBracket `json:"brackets"`
}

// BracketFill is one bucket in the visualization: income in this bracket and tax on it.
type BracketFill struct {
	Label           string          `json:"label"` // e.g. "$0 – $57,375"
	Rate            decimal.Decimal `json:"rate"`
	IncomeInBracket decimal.Decimal `json:"income_in_bracket"`
	Tax             decimal.Decimal `json:"tax"`
	FillPct         decimal.Decimal `json:"fill_pct"` // 0–100 for CSS width
}

// NewBracketTable validates brackets: the first starts at 0, each ends where the next
// starts, rates are in [0,1), and only the last one is unbounded.
func NewBracketTable(jurisdiction string, year int, brackets []TaxBracket) (BracketTable, error) {
	if len(brackets) == 0 {
		return BracketTable{}, fmt.Errorf("%s %d: no brackets: %w", jurisdiction, year, ErrMalformedBrackets)
	}
	if !brackets[0].Min.IsZero() {
		return BracketTable{}, fmt.Errorf("%s %d: first bracket starts at %s: %w", jurisdiction, year, brackets[0].Min, ErrMalformedBrackets)
	}
	last := len(brackets) - 1
	for i, b := range brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThanOrEqual(one) {
			return BracketTable{}, fmt.Errorf("%s %d: bracket %d rate %s out of range: %w", jurisdiction, year, i, b.Rate, ErrMalformedBrackets)
		}
		if i == last {
			if !b.Unbounded {
				return BracketTable{}, fmt.Errorf("%s %d: top bracket must be unbounded: %w", jurisdiction, year, ErrMalformedBrackets)
			}
			continue
		}
		if b.Unbounded {
			return BracketTable{}, fmt.Errorf("%s %d: bracket %d is unbounded but not last: %w", jurisdiction, year, i, ErrMalformedBrackets)
		}
		if !b.Max.GreaterThan(b.Min) {
			return BracketTable{}, fmt.Errorf("%s %d: bracket %d is empty: %w", jurisdiction, year, i, ErrMalformedBrackets)
		}
		if !b.Max.Equal(brackets[i+1].Min) {
			return BracketTable{}, fmt.Errorf("%s %d: gap or overlap between brackets %d and %d: %w", jurisdiction, year, i, i+1, ErrMalformedBrackets)
		}
	}
	cp := make([]TaxBracket, len(brackets))
	copy(cp, brackets)
	return BracketTable{Jurisdiction: jurisdiction, Year: year, Brackets: cp}, nil
}

// ComputeTax taxes only the slice of income inside each bracket at that bracket's rate.
// Negative income is treated as zero.
func ComputeTax(income decimal.Decimal, table BracketTable) decimal.Decimal {
	remaining := decimal.Max(income, zero)
	tax := zero
	for _, b := range table.Brackets {
		if !remaining.IsPositive() {
			break
		}
		taxable := remaining
		if !b.Unbounded {
			taxable = decimal.Min(remaining, b.Max.Sub(b.Min))
		}
		tax = tax.Add(taxable.Mul(b.Rate))
		remaining = remaining.Sub(taxable)
	}
	return tax
}

// MarginalRate returns the rate of the bracket containing income. A boundary amount
// belongs to the higher bracket.
func MarginalRate(income decimal.Decimal, table BracketTable) decimal.Decimal {
	income = decimal.Max(income, zero)
	for _, b := range table.Brackets {
		if income.GreaterThanOrEqual(b.Min) && (b.Unbounded || income.LessThan(b.Max)) {
			return b.Rate
		}
	}
	return zero
}

// AverageRate is totalTax/income, or 0 when there is no income.
func AverageRate(totalTax, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return zero
	}
	return totalTax.Div(income)
}

// CombinedMarginalRate adds each jurisdiction's marginal rate at the same income.
// This is an approximation: surtaxes, credits and clawbacks are ignored.
func CombinedMarginalRate(income decimal.Decimal, tables ...BracketTable) decimal.Decimal {
	rate := zero
	for _, t := range tables {
		rate = rate.Add(MarginalRate(income, t))
	}
	return rate
}

// BracketBreakdown returns a BracketFill for every bracket the income reaches.
func BracketBreakdown(income decimal.Decimal, table BracketTable) []BracketFill {
	income = decimal.Max(income, zero)
	var fills []BracketFill
	for _, b := range table.Brackets {
		inBracket := income.Sub(b.Min)
		if !b.Unbounded {
			inBracket = decimal.Min(inBracket, b.Max.Sub(b.Min))
		}
		if !inBracket.IsPositive() {
			break
		}
		fillPct := hundred
		if !b.Unbounded {
			fillPct = inBracket.Div(b.Max.Sub(b.Min)).Mul(hundred).Round(2)
		}
		fills = append(fills, BracketFill{
			Label:           formatBracketLabel(b),
			Rate:            b.Rate,
			IncomeInBracket: cents(inBracket),
			Tax:             cents(inBracket.Mul(b.Rate)),
			FillPct:         fillPct,
		})
	}
	return fills
}

func formatBracketLabel(b TaxBracket) string {
	if b.Unbounded {
		return fmt.Sprintf("Over $%s", formatDollars(b.Min))
	}
	return fmt.Sprintf("$%s – $%s", formatDollars(b.Min), formatDollars(b.Max))
}

func formatDollars(d decimal.Decimal) string {
	s := money(toCents(d.Truncate(0)))
	// money prefixes "$" and appends cents; labels want whole dollars only
	return s[1 : len(s)-3]
}
