package main

import (
	"github.com/shopspring/decimal"
)

// maxLoanYears caps loan terms so the month loop and schedule stay bounded.
const maxLoanYears = 100

// Amortization summarises a fixed-payment loan.
type Amortization struct {
	Principal      decimal.Decimal `json:"principal"`
	Months         int             `json:"months"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayments  decimal.Decimal `json:"total_payments"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
}

// PayoffMonth is one row of a loan schedule.
type PayoffMonth struct {
	MonthIndex int             `json:"month"`
	Interest   decimal.Decimal `json:"interest"`
	Principal  decimal.Decimal `json:"principal"`
	Payment    decimal.Decimal `json:"payment"`
	Balance    decimal.Decimal `json:"balance"` // end-of-month
}

func monthlyRate(annualRatePct decimal.Decimal) decimal.Decimal {
	return pct(annualRatePct).Div(twelve)
}

// monthlyPayment is M = P·r(1+r)^n / ((1+r)^n − 1), or P/n for an interest-free loan.
func monthlyPayment(principal, annualRatePct decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	r := monthlyRate(annualRatePct)
	if r.IsZero() {
		return principal.Div(n)
	}
	f := compoundFactor(r, months)
	return principal.Mul(r).Mul(f).Div(f.Sub(one))
}

// Amortize computes the level monthly payment on principal over years.
func Amortize(principal, annualRatePct decimal.Decimal, years int) (Amortization, error) {
	if err := requireNonNegative("principal", principal); err != nil {
		return Amortization{}, err
	}
	if err := requireNonNegative("rate", annualRatePct); err != nil {
		return Amortization{}, err
	}
	if years <= 0 || years > maxLoanYears {
		return Amortization{}, invalid("term_years", "must be between 1 and 100")
	}
	months := years * 12
	payment := monthlyPayment(principal, annualRatePct, months)
	total := payment.Mul(decimal.NewFromInt(int64(months)))
	return Amortization{
		Principal:      cents(principal),
		Months:         months,
		MonthlyPayment: cents(payment),
		TotalPayments:  cents(total),
		TotalInterest:  cents(total.Sub(principal)),
	}, nil
}

// GeneratePayoffSchedule walks the loan month by month: accrue interest on the
// remaining balance, then apply the level payment. The final payment is trimmed to the
// balance so the schedule ends at exactly zero.
func GeneratePayoffSchedule(principal, annualRatePct decimal.Decimal, years int) ([]PayoffMonth, error) {
	a, err := Amortize(principal, annualRatePct, years)
	if err != nil {
		return nil, err
	}
	r := monthlyRate(annualRatePct)
	bal := principal
	out := make([]PayoffMonth, 0, a.Months)
	for m := 1; m <= a.Months && bal.IsPositive(); m++ {
		interest := cents(bal.Mul(r))
		pay := a.MonthlyPayment
		if m == a.Months || pay.GreaterThan(bal.Add(interest)) {
			pay = bal.Add(interest)
		}
		bal = bal.Add(interest).Sub(pay)
		out = append(out, PayoffMonth{
			MonthIndex: m,
			Interest:   interest,
			Principal:  pay.Sub(interest),
			Payment:    pay,
			Balance:    bal,
		})
	}
	return out, nil
}
