package main

import (
	"github.com/shopspring/decimal"
)

// maxSaveMonths bounds the save-first search to 100 years.
const maxSaveMonths = 100 * 12

const (
	ScenarioLumpSum   = "lump_sum"
	ScenarioFinance   = "finance"
	ScenarioSaveFirst = "save_first"
)

type PurchaseRequest struct {
	PurchaseAmount    decimal.Decimal `json:"purchase_amount"`
	DownPayment       decimal.Decimal `json:"down_payment"`
	LoanRatePct       decimal.Decimal `json:"loan_rate_pct"`
	LoanTermYears     int             `json:"loan_term_years"`
	ExpectedReturnPct decimal.Decimal `json:"expected_return_pct"`
	MonthlySavings    decimal.Decimal `json:"monthly_savings"`
	InflationPct      decimal.Decimal `json:"inflation_pct"`
}

// PurchaseScenario is one way of paying for the purchase. Optional figures are nil when
// they do not apply to the scenario.
type PurchaseScenario struct {
	Name             string           `json:"name"`
	NetCost          decimal.Decimal  `json:"net_cost"`
	NetWorthImpact   decimal.Decimal  `json:"net_worth_impact"`
	MonthlyPayment   *decimal.Decimal `json:"monthly_payment,omitempty"`
	TotalPayments    *decimal.Decimal `json:"total_payments,omitempty"`
	TotalInterest    *decimal.Decimal `json:"total_interest,omitempty"`
	InvestmentGrowth *decimal.Decimal `json:"investment_growth,omitempty"`
	TimeToSave       *decimal.Decimal `json:"time_to_save_years,omitempty"`
	MonthsToSave     int              `json:"months_to_save,omitempty"`
	Reachable        bool             `json:"reachable"`
}

type PurchaseComparison struct {
	LumpSum      PurchaseScenario `json:"lump_sum"`
	Finance      PurchaseScenario `json:"finance"`
	SaveFirst    PurchaseScenario `json:"save_first"`
	BestScenario string           `json:"best_scenario"`
	// BreakEvenRate is the return fraction at which financing costs nothing net; nil
	// when the loan is interest-free or no rate up to 100% gets there.
	BreakEvenRate *decimal.Decimal `json:"break_even_rate"`
}

func (r PurchaseRequest) validate() error {
	if err := requirePositive("purchase_amount", r.PurchaseAmount); err != nil {
		return err
	}
	if err := requireNonNegative("down_payment", r.DownPayment); err != nil {
		return err
	}
	if r.DownPayment.GreaterThanOrEqual(r.PurchaseAmount) {
		return invalid("down_payment", "must be less than the purchase amount")
	}
	if r.LoanTermYears <= 0 {
		return invalid("loan_term_years", "must be greater than zero")
	}
	if r.LoanTermYears > maxLoanYears {
		return invalid("loan_term_years", "must be at most 100")
	}
	if err := requireNonNegative("loan_rate_pct", r.LoanRatePct); err != nil {
		return err
	}
	if err := requireNonNegative("expected_return_pct", r.ExpectedReturnPct); err != nil {
		return err
	}
	if err := requireNonNegative("monthly_savings", r.MonthlySavings); err != nil {
		return err
	}
	return requireNonNegative("inflation_pct", r.InflationPct)
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// ComparePurchase runs the three scenarios independently and ranks them by net worth impact.
func ComparePurchase(req PurchaseRequest) (PurchaseComparison, error) {
	if err := req.validate(); err != nil {
		return PurchaseComparison{}, err
	}
	lump := lumpSumScenario(req)
	finance, interest, err := financeScenario(req)
	if err != nil {
		return PurchaseComparison{}, err
	}
	save := saveFirstScenario(req)

	res := PurchaseComparison{
		LumpSum:      lump,
		Finance:      finance,
		SaveFirst:    save,
		BestScenario: bestScenario(lump, finance, save),
	}
	if interest.IsPositive() {
		res.BreakEvenRate = breakEvenReturn(req.PurchaseAmount.Sub(req.DownPayment), interest, req.LoanTermYears)
	}
	return res, nil
}

// lumpSumScenario costs the return the cash would have earned over the loan term.
func lumpSumScenario(req PurchaseRequest) PurchaseScenario {
	forgone := growthOver(req.PurchaseAmount, pct(req.ExpectedReturnPct), req.LoanTermYears)
	return PurchaseScenario{
		Name:           ScenarioLumpSum,
		NetCost:        cents(req.PurchaseAmount),
		NetWorthImpact: cents(forgone.Neg()),
		Reachable:      true,
	}
}

// financeScenario borrows what the down payment does not cover and invests the same amount.
func financeScenario(req PurchaseRequest) (PurchaseScenario, decimal.Decimal, error) {
	financed := req.PurchaseAmount.Sub(req.DownPayment)
	loan, err := Amortize(financed, req.LoanRatePct, req.LoanTermYears)
	if err != nil {
		return PurchaseScenario{}, zero, err
	}
	growth := growthOver(financed, pct(req.ExpectedReturnPct), req.LoanTermYears)
	return PurchaseScenario{
		Name:             ScenarioFinance,
		NetCost:          cents(req.DownPayment.Add(loan.TotalPayments)),
		NetWorthImpact:   cents(growth.Sub(loan.TotalInterest)),
		MonthlyPayment:   ptr(loan.MonthlyPayment),
		TotalPayments:    ptr(loan.TotalPayments),
		TotalInterest:    ptr(loan.TotalInterest),
		InvestmentGrowth: ptr(cents(growth)),
		Reachable:        true,
	}, loan.TotalInterest, nil
}

// saveFirstScenario saves monthly while the price inflates, buying once savings catch up.
func saveFirstScenario(req PurchaseRequest) PurchaseScenario {
	monthlyInflation := pct(req.InflationPct).Div(twelve)
	price := req.PurchaseAmount
	saved := zero
	months := 0
	reached := false
	if req.MonthlySavings.IsPositive() {
		for months < maxSaveMonths {
			months++
			saved = saved.Add(req.MonthlySavings)
			price = price.Mul(one.Add(monthlyInflation)).Round(workingPlaces)
			if saved.GreaterThanOrEqual(price) {
				reached = true
				break
			}
		}
	}
	s := PurchaseScenario{
		Name:           ScenarioSaveFirst,
		NetCost:        cents(price),
		NetWorthImpact: cents(price.Sub(req.PurchaseAmount).Neg()),
		Reachable:      reached,
	}
	if reached {
		s.MonthsToSave = months
		s.TimeToSave = ptr(decimal.NewFromInt(int64(months)).Div(twelve).Round(2))
	}
	return s
}

// bestScenario picks the largest net worth impact; earlier scenarios win ties and
// unreachable ones never win.
func bestScenario(scenarios ...PurchaseScenario) string {
	best := -1
	for i, s := range scenarios {
		if !s.Reachable {
			continue
		}
		if best < 0 || s.NetWorthImpact.GreaterThan(scenarios[best].NetWorthImpact) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return scenarios[best].Name
}

// breakEvenReturn solves growthOver(financed, r, years) = interest for r in [0, 1].
func breakEvenReturn(financed, interest decimal.Decimal, years int) *decimal.Decimal {
	f := func(r decimal.Decimal) decimal.Decimal {
		return growthOver(financed, r, years).Sub(interest)
	}
	r, ok := bisect(f, zero, one, breakEvenTolerance)
	if !ok {
		return nil
	}
	return ptr(r.Round(6))
}
