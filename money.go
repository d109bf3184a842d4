package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// workingPlaces bounds the scale of intermediate products in long compounding chains.
const workingPlaces = 18

// pct converts a whole-number percentage (7 = 7%) to a fraction.
func pct(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// compoundFactor returns (1+rate)^periods for a non-negative integer period count.
func compoundFactor(rate decimal.Decimal, periods int) decimal.Decimal {
	base := one.Add(rate)
	f := one
	for i := 0; i < periods; i++ {
		f = f.Mul(base).Round(workingPlaces)
	}
	return f
}

// safeDiv returns 0 instead of dividing by zero.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return zero
	}
	return num.Div(den)
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	return nil
}

func requirePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	return nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	d := cents / 100
	r := cents % 100
	// Add commas for thousands separator
	dStr := fmt.Sprintf("%d", d)
	var result []byte
	for i, c := range dStr {
		if i > 0 && (len(dStr)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return fmt.Sprintf("%s$%s.%02d", sign, string(result), r)
}

// moneyDec formats a decimal amount the same way money formats cents.
func moneyDec(d decimal.Decimal) string {
	return money(toCents(d))
}

// percent formats a fraction (0.205) as "20.50%".
func percent(frac decimal.Decimal) string {
	return frac.Mul(hundred).StringFixed(2) + "%"
}
