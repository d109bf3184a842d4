package main

import (
	"github.com/shopspring/decimal"
)

// EstateFeePercents are whole-number percents of the market value at death.
type EstateFeePercents struct {
	Probate    decimal.Decimal `json:"probate"`
	Accounting decimal.Decimal `json:"accounting"`
	Executor   decimal.Decimal `json:"executor"`
	Legal      decimal.Decimal `json:"legal"`
	Surrender  decimal.Decimal `json:"surrender"`
}

type EstateRequest struct {
	InitialDeposit     decimal.Decimal   `json:"initial_deposit"`
	MarketValueAtDeath decimal.Decimal   `json:"market_value_at_death"`
	GuaranteePct       decimal.Decimal   `json:"guarantee_pct"`
	Fees               EstateFeePercents `json:"fees"`
}

type EstateFees struct {
	Probate    decimal.Decimal `json:"probate"`
	Accounting decimal.Decimal `json:"accounting"`
	Executor   decimal.Decimal `json:"executor"`
	Legal      decimal.Decimal `json:"legal"`
	Surrender  decimal.Decimal `json:"surrender"`
	Total      decimal.Decimal `json:"total"`
}

type EstateComparison struct {
	TraditionalFees        EstateFees      `json:"traditional_fees"`
	TraditionalEstateValue decimal.Decimal `json:"traditional_estate_value"`
	GuaranteedValue        decimal.Decimal `json:"guaranteed_value"`
	SegregatedEstateValue  decimal.Decimal `json:"segregated_estate_value"`
	// TotalSavings is SegregatedEstateValue minus TraditionalEstateValue.
	TotalSavings decimal.Decimal `json:"total_savings"`
}

func (r EstateRequest) validate() error {
	checks := []struct {
		field string
		v     decimal.Decimal
	}{
		{"initial_deposit", r.InitialDeposit},
		{"market_value_at_death", r.MarketValueAtDeath},
		{"guarantee_pct", r.GuaranteePct},
		{"fees.probate", r.Fees.Probate},
		{"fees.accounting", r.Fees.Accounting},
		{"fees.executor", r.Fees.Executor},
		{"fees.legal", r.Fees.Legal},
		{"fees.surrender", r.Fees.Surrender},
	}
	for _, c := range checks {
		if err := requireNonNegative(c.field, c.v); err != nil {
			return err
		}
	}
	return nil
}

// CompareEstates sets a segregated fund's guaranteed death benefit against a
// traditional estate that pays settlement fees. The surrender fee is charged on the
// traditional side, as the advisor's worksheet does.
func CompareEstates(req EstateRequest) (EstateComparison, error) {
	if err := req.validate(); err != nil {
		return EstateComparison{}, err
	}
	mv := req.MarketValueAtDeath
	fee := func(p decimal.Decimal) decimal.Decimal { return mv.Mul(pct(p)) }
	fees := EstateFees{
		Probate:    fee(req.Fees.Probate),
		Accounting: fee(req.Fees.Accounting),
		Executor:   fee(req.Fees.Executor),
		Legal:      fee(req.Fees.Legal),
		Surrender:  fee(req.Fees.Surrender),
	}
	fees.Total = fees.Probate.Add(fees.Accounting).Add(fees.Executor).Add(fees.Legal).Add(fees.Surrender)

	guaranteed := req.InitialDeposit.Mul(pct(req.GuaranteePct))
	segregated := decimal.Max(guaranteed, mv)
	traditional := mv.Sub(fees.Total)

	return EstateComparison{
		TraditionalFees: EstateFees{
			Probate:    cents(fees.Probate),
			Accounting: cents(fees.Accounting),
			Executor:   cents(fees.Executor),
			Legal:      cents(fees.Legal),
			Surrender:  cents(fees.Surrender),
			Total:      cents(fees.Total),
		},
		TraditionalEstateValue: cents(traditional),
		GuaranteedValue:        cents(guaranteed),
		SegregatedEstateValue:  cents(segregated),
		TotalSavings:           cents(segregated.Sub(traditional)),
	}, nil
}
