package main

import (
	"github.com/shopspring/decimal"
)

// Debt-service limits and the minimum qualifying rate used by lenders' stress test.
var (
	gdsLimit            = decimal.NewFromFloat(0.39)
	tdsLimit            = decimal.NewFromFloat(0.44)
	stressTestBuffer    = decimal.NewFromInt(2)
	stressTestFloorRate = decimal.NewFromFloat(5.25)
)

type AffordabilityRequest struct {
	AnnualIncome       decimal.Decimal `json:"annual_income"`
	MonthlyDebts       decimal.Decimal `json:"monthly_debts"`
	DownPayment        decimal.Decimal `json:"down_payment"`
	RatePct            decimal.Decimal `json:"rate_pct"`
	AmortizationYears  int             `json:"amortization_years"`
	PropertyTaxMonthly decimal.Decimal `json:"property_tax_monthly"`
	HeatingMonthly     decimal.Decimal `json:"heating_monthly"`
}

type AffordabilityResult struct {
	QualifyingRatePct     decimal.Decimal `json:"qualifying_rate_pct"`
	MaxMonthlyPayment     decimal.Decimal `json:"max_monthly_payment"`
	LimitingRatio         string          `json:"limiting_ratio"` // "gds" or "tds"
	MaxMortgage           decimal.Decimal `json:"max_mortgage"`
	MaxPurchasePrice      decimal.Decimal `json:"max_purchase_price"`
	PaymentAtContractRate decimal.Decimal `json:"contract_payment"`
}

func (r AffordabilityRequest) validate() error {
	if err := requirePositive("annual_income", r.AnnualIncome); err != nil {
		return err
	}
	checks := []struct {
		field string
		v     decimal.Decimal
	}{
		{"monthly_debts", r.MonthlyDebts},
		{"down_payment", r.DownPayment},
		{"rate_pct", r.RatePct},
		{"property_tax_monthly", r.PropertyTaxMonthly},
		{"heating_monthly", r.HeatingMonthly},
	}
	for _, c := range checks {
		if err := requireNonNegative(c.field, c.v); err != nil {
			return err
		}
	}
	if r.AmortizationYears <= 0 || r.AmortizationYears > 40 {
		return invalid("amortization_years", "must be between 1 and 40")
	}
	return nil
}

// QualifyingRate is the greater of the contract rate plus 2 points and 5.25%.
func QualifyingRate(ratePct decimal.Decimal) decimal.Decimal {
	return decimal.Max(ratePct.Add(stressTestBuffer), stressTestFloorRate)
}

// presentValue is the loan a level monthly payment supports over months at rate.
func presentValue(payment, annualRatePct decimal.Decimal, months int) decimal.Decimal {
	r := monthlyRate(annualRatePct)
	if r.IsZero() {
		return payment.Mul(decimal.NewFromInt(int64(months)))
	}
	f := compoundFactor(r, months)
	return payment.Mul(f.Sub(one)).Div(r.Mul(f))
}

// CalculateAffordability sizes the largest mortgage that passes both the gross and
// total debt service ratios at the stress-test rate.
func CalculateAffordability(req AffordabilityRequest) (AffordabilityResult, error) {
	if err := req.validate(); err != nil {
		return AffordabilityResult{}, err
	}
	monthlyIncome := req.AnnualIncome.Div(twelve)
	housing := req.PropertyTaxMonthly.Add(req.HeatingMonthly)
	gds := monthlyIncome.Mul(gdsLimit).Sub(housing)
	tds := monthlyIncome.Mul(tdsLimit).Sub(housing).Sub(req.MonthlyDebts)

	limiting := "gds"
	payment := gds
	if tds.LessThan(gds) {
		limiting = "tds"
		payment = tds
	}
	payment = decimal.Max(payment, zero)

	qualifying := QualifyingRate(req.RatePct)
	months := req.AmortizationYears * 12
	mortgage := presentValue(payment, qualifying, months)

	return AffordabilityResult{
		QualifyingRatePct:     qualifying,
		MaxMonthlyPayment:     cents(payment),
		LimitingRatio:         limiting,
		MaxMortgage:           cents(mortgage),
		MaxPurchasePrice:      cents(mortgage.Add(req.DownPayment)),
		PaymentAtContractRate: cents(monthlyPayment(mortgage, req.RatePct, months)),
	}, nil
}
