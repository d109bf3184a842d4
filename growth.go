package main

import (
	"github.com/shopspring/decimal"
)

// maxProjectionPeriods caps any period-by-period loop (100 years of weeks).
const maxProjectionPeriods = 100 * 52

// CompoundOrder says whether cash flows land before or after the period's growth.
type CompoundOrder int

const (
	AddThenGrow      CompoundOrder = iota // contribution is added, then the whole balance grows
	SubtractThenGrow                      // withdrawal is taken, then only the remainder grows
)

func (o CompoundOrder) String() string {
	switch o {
	case AddThenGrow:
		return "add_then_grow"
	case SubtractThenGrow:
		return "subtract_then_grow"
	default:
		return "unknown"
	}
}

// Apply moves flow into (AddThenGrow) or out of (SubtractThenGrow) balance and grows
// the result by rate. applied is the flow actually moved.
func (o CompoundOrder) Apply(balance, flow, rate decimal.Decimal) (ending, growth, applied decimal.Decimal) {
	if o == SubtractThenGrow {
		return CompoundAfterWithdrawal(balance, flow, rate)
	}
	ending, growth = CompoundAfterContribution(balance, flow, rate)
	return ending, growth, flow
}

// CompoundAfterContribution adds contribution to balance then applies rate to the sum.
func CompoundAfterContribution(balance, contribution, rate decimal.Decimal) (ending, growth decimal.Decimal) {
	base := balance.Add(contribution)
	growth = base.Mul(rate).Round(workingPlaces)
	return base.Add(growth), growth
}

// CompoundAfterWithdrawal takes withdrawal out of balance (never below 0) and grows
// what remains. The amount actually withdrawn is returned.
func CompoundAfterWithdrawal(balance, withdrawal, rate decimal.Decimal) (ending, growth, withdrawn decimal.Decimal) {
	withdrawn = decimal.Min(withdrawal, decimal.Max(balance, zero))
	remainder := balance.Sub(withdrawn)
	growth = remainder.Mul(rate).Round(workingPlaces)
	return remainder.Add(growth), growth, withdrawn
}

type ProjectionRequest struct {
	Principal            decimal.Decimal `json:"principal"`
	PeriodicContribution decimal.Decimal `json:"periodic_contribution"`
	AnnualRatePct        decimal.Decimal `json:"annual_rate_pct"`
	Periods              int             `json:"periods"`
	// PeriodsPerYear splits the annual rate: 0 or 1 is yearly, 12 monthly, 52 weekly.
	PeriodsPerYear int `json:"periods_per_year"`
}

type ProjectionPeriod struct {
	Period                  int             `json:"period"`
	Contribution            decimal.Decimal `json:"contribution"`
	Growth                  decimal.Decimal `json:"growth"`
	EndingBalance           decimal.Decimal `json:"ending_balance"`
	CumulativeContributions decimal.Decimal `json:"cumulative_contributions"`
}

type Projection struct {
	Order              string             `json:"order"`
	Periods            []ProjectionPeriod `json:"periods"`
	FinalBalance       decimal.Decimal    `json:"final_balance"`
	TotalContributions decimal.Decimal    `json:"total_contributions"` // principal included
	TotalGrowth        decimal.Decimal    `json:"total_growth"`
}

func (r ProjectionRequest) periodRate() decimal.Decimal {
	rate := pct(r.AnnualRatePct)
	if r.PeriodsPerYear > 1 {
		rate = rate.Div(decimal.NewFromInt(int64(r.PeriodsPerYear)))
	}
	return rate
}

func (r ProjectionRequest) validate() error {
	if err := requireNonNegative("principal", r.Principal); err != nil {
		return err
	}
	if err := requireNonNegative("periodic_contribution", r.PeriodicContribution); err != nil {
		return err
	}
	if r.AnnualRatePct.LessThanOrEqual(hundred.Neg()) {
		return invalid("annual_rate_pct", "must be greater than -100")
	}
	if r.Periods <= 0 || r.Periods > maxProjectionPeriods {
		return invalid("periods", "must be between 1 and 5200")
	}
	if r.PeriodsPerYear < 0 {
		return invalid("periods_per_year", "must not be negative")
	}
	return nil
}

// Project compounds principal plus a fixed contribution each period. Every record's
// EndingBalance is the starting balance of the next.
func Project(req ProjectionRequest) (Projection, error) {
	if err := req.validate(); err != nil {
		return Projection{}, err
	}
	rate := req.periodRate()
	balance := req.Principal
	contributed := zero
	totalGrowth := zero
	out := make([]ProjectionPeriod, 0, req.Periods)
	for p := 1; p <= req.Periods; p++ {
		var growth decimal.Decimal
		balance, growth, _ = AddThenGrow.Apply(balance, req.PeriodicContribution, rate)
		contributed = contributed.Add(req.PeriodicContribution)
		totalGrowth = totalGrowth.Add(growth)
		out = append(out, ProjectionPeriod{
			Period:                  p,
			Contribution:            cents(req.PeriodicContribution),
			Growth:                  cents(growth),
			EndingBalance:           cents(balance),
			CumulativeContributions: cents(contributed),
		})
	}
	return Projection{
		Order:              AddThenGrow.String(),
		Periods:            out,
		FinalBalance:       cents(balance),
		TotalContributions: cents(req.Principal.Add(contributed)),
		TotalGrowth:        cents(totalGrowth),
	}, nil
}

// growthOver is the growth earned by amount left untouched for periods at rate.
func growthOver(amount, rate decimal.Decimal, periods int) decimal.Decimal {
	balance := amount
	for p := 0; p < periods; p++ {
		balance, _ = CompoundAfterContribution(balance, zero, rate)
	}
	return balance.Sub(amount)
}

// WithdrawalPolicy decides how much to take out at the start of a period. previous is
// the amount the policy asked for in the period before (zero in period 1), whether or
// not the balance could cover it.
type WithdrawalPolicy interface {
	Amount(period int, balance, previous decimal.Decimal) decimal.Decimal
	Name() string
}

// InflationAdjustedWithdrawal withdraws a fixed income that rises with inflation each period.
type InflationAdjustedWithdrawal struct {
	Initial      decimal.Decimal
	InflationPct decimal.Decimal
}

func (w InflationAdjustedWithdrawal) Amount(period int, _, previous decimal.Decimal) decimal.Decimal {
	if period <= 1 {
		return w.Initial
	}
	return previous.Mul(one.Add(pct(w.InflationPct))).Round(workingPlaces)
}

func (w InflationAdjustedWithdrawal) Name() string { return "inflation_adjusted" }

// IncomeOnlyWithdrawal withdraws the yield on the current balance and leaves principal intact.
type IncomeOnlyWithdrawal struct {
	YieldPct decimal.Decimal
}

func (w IncomeOnlyWithdrawal) Amount(_ int, balance, _ decimal.Decimal) decimal.Decimal {
	return decimal.Max(balance, zero).Mul(pct(w.YieldPct))
}

func (w IncomeOnlyWithdrawal) Name() string { return "income_only" }

type WithdrawalRequest struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
	AnnualRatePct   decimal.Decimal `json:"annual_rate_pct"`
	Periods         int             `json:"periods"`
	// Strategy is "inflation_adjusted" (default) or "income_only".
	Strategy         string          `json:"strategy"`
	AnnualWithdrawal decimal.Decimal `json:"annual_withdrawal"`
	InflationPct     decimal.Decimal `json:"inflation_pct"`
}

type WithdrawalPeriod struct {
	Period                int             `json:"period"`
	Withdrawal            decimal.Decimal `json:"withdrawal"`
	Growth                decimal.Decimal `json:"growth"`
	EndingBalance         decimal.Decimal `json:"ending_balance"`
	CumulativeWithdrawals decimal.Decimal `json:"cumulative_withdrawals"`
}

type WithdrawalProjection struct {
	Order            string             `json:"order"`
	Strategy         string             `json:"strategy"`
	Periods          []WithdrawalPeriod `json:"periods"`
	FinalBalance     decimal.Decimal    `json:"final_balance"`
	TotalWithdrawn   decimal.Decimal    `json:"total_withdrawn"`
	DepletedInPeriod int                `json:"depleted_in_period"` // 0 when the balance lasts
}

// Policy builds the WithdrawalPolicy named by Strategy.
func (r WithdrawalRequest) Policy() (WithdrawalPolicy, error) {
	switch r.Strategy {
	case "", "inflation_adjusted":
		return InflationAdjustedWithdrawal{Initial: r.AnnualWithdrawal, InflationPct: r.InflationPct}, nil
	case "income_only":
		return IncomeOnlyWithdrawal{YieldPct: r.AnnualRatePct}, nil
	default:
		return nil, invalid("strategy", "must be inflation_adjusted or income_only")
	}
}

func (r WithdrawalRequest) validate() error {
	if err := requireNonNegative("starting_balance", r.StartingBalance); err != nil {
		return err
	}
	if err := requireNonNegative("annual_withdrawal", r.AnnualWithdrawal); err != nil {
		return err
	}
	if r.AnnualRatePct.LessThanOrEqual(hundred.Neg()) {
		return invalid("annual_rate_pct", "must be greater than -100")
	}
	if r.InflationPct.LessThanOrEqual(hundred.Neg()) {
		return invalid("inflation_pct", "must be greater than -100")
	}
	if r.Periods <= 0 || r.Periods > maxProjectionPeriods {
		return invalid("periods", "must be between 1 and 5200")
	}
	return nil
}

// ProjectWithdrawals draws down a balance using SubtractThenGrow each year.
func ProjectWithdrawals(req WithdrawalRequest) (WithdrawalProjection, error) {
	if err := req.validate(); err != nil {
		return WithdrawalProjection{}, err
	}
	policy, err := req.Policy()
	if err != nil {
		return WithdrawalProjection{}, err
	}
	rate := pct(req.AnnualRatePct)
	balance := req.StartingBalance
	withdrawnTotal := zero
	res := WithdrawalProjection{Order: SubtractThenGrow.String(), Strategy: policy.Name()}
	planned := zero
	for p := 1; p <= req.Periods; p++ {
		var growth, withdrawn decimal.Decimal
		planned = policy.Amount(p, balance, planned)
		balance, growth, withdrawn = SubtractThenGrow.Apply(balance, planned, rate)
		withdrawnTotal = withdrawnTotal.Add(withdrawn)
		res.Periods = append(res.Periods, WithdrawalPeriod{
			Period:                p,
			Withdrawal:            cents(withdrawn),
			Growth:                cents(growth),
			EndingBalance:         cents(balance),
			CumulativeWithdrawals: cents(withdrawnTotal),
		})
		if res.DepletedInPeriod == 0 && !balance.IsPositive() {
			res.DepletedInPeriod = p
		}
	}
	res.FinalBalance = cents(balance)
	res.TotalWithdrawn = cents(withdrawnTotal)
	return res, nil
}
