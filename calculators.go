package main

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// calculator is one engine exposed over HTTP. Run decodes a JSON request body and
// returns the engine's result.
type calculator struct {
	Name  string
	Title string
	Run   func(body []byte) (any, error)
}

// decodeAndRun binds an engine with a single request value to the JSON boundary.
func decodeAndRun[Req any, Res any](calc func(Req) (Res, error)) func([]byte) (any, error) {
	return func(body []byte) (any, error) {
		var req Req
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, invalid("body", err.Error())
		}
		return calc(req)
	}
}

// TFSARoomRequest is the TFSA calculator input: the profile plus the year to evaluate
// and which room baseline to trust.
type TFSARoomRequest struct {
	TFSAProfile
	CurrentYear int    `json:"current_year"` // defaults to this calendar year
	Policy      string `json:"policy"`       // lifetime_table (default) or manual_override
}

type PayoffRequest struct {
	Principal     decimal.Decimal `json:"principal"`
	AnnualRatePct decimal.Decimal `json:"annual_rate_pct"`
	Years         int             `json:"years"`
}

type PayoffResult struct {
	Amortization
	Schedule []PayoffMonth `json:"schedule"`
}

// CalculatePayoff amortizes a loan and lists its month-by-month schedule.
func CalculatePayoff(req PayoffRequest) (PayoffResult, error) {
	if err := requireNonNegative("annual_rate_pct", req.AnnualRatePct); err != nil {
		return PayoffResult{}, err
	}
	if req.Years <= 0 || req.Years > maxLoanYears {
		return PayoffResult{}, invalid("years", "must be between 1 and 100")
	}
	a, err := Amortize(req.Principal, req.AnnualRatePct, req.Years)
	if err != nil {
		return PayoffResult{}, err
	}
	schedule, err := GeneratePayoffSchedule(req.Principal, req.AnnualRatePct, req.Years)
	if err != nil {
		return PayoffResult{}, err
	}
	return PayoffResult{Amortization: a, Schedule: schedule}, nil
}

func (a *App) calculators() map[string]calculator {
	list := []calculator{
		{Name: "tax", Title: "Income Tax", Run: decodeAndRun(func(req IncomeTaxRequest) (IncomeTaxResult, error) {
			return CalculateIncomeTax(req, a.rates.Tax)
		})},
		{Name: "rrsp", Title: "RRSP Tax Savings", Run: decodeAndRun(func(req RRSPRequest) (RRSPResult, error) {
			return CalculateRRSPSavings(req, a.rates.Tax)
		})},
		{Name: "tfsa", Title: "TFSA Contribution Room", Run: decodeAndRun(func(req TFSARoomRequest) (TFSARoom, error) {
			year := req.CurrentYear
			if year == 0 {
				year = a.currentYear()
			}
			return CalculateRoom(req.TFSAProfile, year, ParseRoomPolicy(req.Policy), a.rates.TFSALimits)
		})},
		{Name: "growth", Title: "Investment Growth", Run: decodeAndRun(Project)},
		{Name: "withdrawal", Title: "Withdrawal Strategy", Run: decodeAndRun(ProjectWithdrawals)},
		{Name: "purchase", Title: "Large Purchase Comparison", Run: decodeAndRun(ComparePurchase)},
		{Name: "estate", Title: "Segregated Funds vs. Traditional Investing", Run: decodeAndRun(CompareEstates)},
		{Name: "mortgage", Title: "Mortgage Affordability", Run: decodeAndRun(CalculateAffordability)},
		{Name: "insurance", Title: "Insurance vs. Investment", Run: decodeAndRun(CompareInsurance)},
		{Name: "payoff", Title: "Loan Payoff Schedule", Run: decodeAndRun(CalculatePayoff)},
	}
	out := make(map[string]calculator, len(list))
	for _, c := range list {
		out[c.Name] = c
	}
	return out
}

// currentYear is split out so tests can pin the clock through App.now.
func (a *App) currentYear() int {
	if a.now == nil {
		return time.Now().Year()
	}
	return a.now().Year()
}
