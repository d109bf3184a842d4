package main

import (
	"github.com/shopspring/decimal"
)

// illustrationRates are the returns shown beside the solved break-even rate.
var illustrationRates = []int64{3, 5, 7, 10}

type InsuranceRequest struct {
	PermanentPremium decimal.Decimal `json:"permanent_premium"` // annual
	TermPremium      decimal.Decimal `json:"term_premium"`      // annual
	Years            int             `json:"years"`
	ReturnPct        decimal.Decimal `json:"return_pct"`
	CashValueAtEnd   decimal.Decimal `json:"cash_value_at_end"`
	DeathBenefit     decimal.Decimal `json:"death_benefit"`
}

type InsuranceIllustration struct {
	RatePct         decimal.Decimal `json:"rate_pct"`
	InvestedBalance decimal.Decimal `json:"invested_balance"`
	Advantage       decimal.Decimal `json:"advantage"`
}

type InsuranceComparison struct {
	AnnualDifference decimal.Decimal `json:"annual_difference"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	InvestedBalance  decimal.Decimal `json:"invested_balance"`
	CashValueAtEnd   decimal.Decimal `json:"cash_value_at_end"`
	// Advantage is the invested balance minus the policy's cash value.
	Advantage      decimal.Decimal         `json:"advantage"`
	Recommendation string                  `json:"recommendation"`
	BreakEvenRate  *decimal.Decimal        `json:"break_even_rate"`
	Illustrations  []InsuranceIllustration `json:"illustrations"`
	// Estate values for a death late in the final policy year. The term buyer's heirs get
	// the face amount plus the invested side fund; the permanent policy pays its face
	// amount and the cash value is absorbed into it.
	DeathBenefit         decimal.Decimal `json:"death_benefit"`
	TermEstateValue      decimal.Decimal `json:"term_estate_value"`
	PermanentEstateValue decimal.Decimal `json:"permanent_estate_value"`
}

func (r InsuranceRequest) validate() error {
	if err := requireNonNegative("term_premium", r.TermPremium); err != nil {
		return err
	}
	if r.PermanentPremium.LessThan(r.TermPremium) {
		return invalid("permanent_premium", "must be at least the term premium")
	}
	if err := requireNonNegative("return_pct", r.ReturnPct); err != nil {
		return err
	}
	if err := requireNonNegative("cash_value_at_end", r.CashValueAtEnd); err != nil {
		return err
	}
	if err := requireNonNegative("death_benefit", r.DeathBenefit); err != nil {
		return err
	}
	if r.Years <= 0 || r.Years > 100 {
		return invalid("years", "must be between 1 and 100")
	}
	return nil
}

// investDifference contributes diff at the start of each year and grows it at rate.
func investDifference(diff, rate decimal.Decimal, years int) decimal.Decimal {
	balance := zero
	for y := 0; y < years; y++ {
		balance, _, _ = AddThenGrow.Apply(balance, diff, rate)
	}
	return balance
}

// CompareInsurance weighs "buy term and invest the difference" against a permanent
// policy's cash value.
func CompareInsurance(req InsuranceRequest) (InsuranceComparison, error) {
	if err := req.validate(); err != nil {
		return InsuranceComparison{}, err
	}
	diff := req.PermanentPremium.Sub(req.TermPremium)
	invested := investDifference(diff, pct(req.ReturnPct), req.Years)
	advantage := invested.Sub(req.CashValueAtEnd)

	res := InsuranceComparison{
		AnnualDifference: cents(diff),
		TotalInvested:    cents(diff.Mul(decimal.NewFromInt(int64(req.Years)))),
		InvestedBalance:  cents(invested),
		CashValueAtEnd:   cents(req.CashValueAtEnd),
		Advantage:        cents(advantage),
		Recommendation:   "permanent",

		DeathBenefit:         cents(req.DeathBenefit),
		TermEstateValue:      cents(req.DeathBenefit.Add(invested)),
		PermanentEstateValue: cents(req.DeathBenefit),
	}
	if advantage.IsPositive() {
		res.Recommendation = "term_and_invest"
	}

	f := func(r decimal.Decimal) decimal.Decimal {
		return investDifference(diff, r, req.Years).Sub(req.CashValueAtEnd)
	}
	if diff.IsPositive() {
		if r, ok := bisect(f, zero, one, breakEvenTolerance); ok {
			res.BreakEvenRate = ptr(r.Round(6))
		}
	}

	for _, p := range illustrationRates {
		rate := decimal.NewFromInt(p)
		bal := investDifference(diff, pct(rate), req.Years)
		res.Illustrations = append(res.Illustrations, InsuranceIllustration{
			RatePct:         rate,
			InvestedBalance: cents(bal),
			Advantage:       cents(bal.Sub(req.CashValueAtEnd)),
		})
	}
	return res, nil
}
