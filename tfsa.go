package main

import (
	"sort"

	"github.com/shopspring/decimal"
)

// tfsaFirstYear is the year TFSAs were introduced.
const tfsaFirstYear = 2009

// tfsaLastYear is the latest year room can be evaluated for.
const tfsaLastYear = 2100

// tfsaMinBirthYear matches the tfsa_profiles birth_year check.
const tfsaMinBirthYear = 1900

// tfsaMinimumAge is the age of majority used for TFSA eligibility.
const tfsaMinimumAge = 18

// penaltyRatePerMonth is the CRA tax on an excess TFSA amount, per month it remains.
var penaltyRatePerMonth = decimal.NewFromFloat(0.01)

// LimitTable maps a calendar year to the annual TFSA dollar limit.
type LimitTable struct {
	limits    map[int]decimal.Decimal
	firstYear int
	lastYear  int
}

func NewLimitTable(limits map[int]decimal.Decimal) LimitTable {
	t := LimitTable{limits: make(map[int]decimal.Decimal, len(limits))}
	for year, amount := range limits {
		t.limits[year] = amount
		if t.firstYear == 0 || year < t.firstYear {
			t.firstYear = year
		}
		if year > t.lastYear {
			t.lastYear = year
		}
	}
	return t
}

// Limit returns the dollar limit for year. Years before the table are 0; years after it
// repeat the last published limit.
func (t LimitTable) Limit(year int) decimal.Decimal {
	if len(t.limits) == 0 || year < t.firstYear {
		return zero
	}
	if year > t.lastYear {
		year = t.lastYear
	}
	return t.limits[year]
}

// Years lists the table's years in ascending order.
func (t LimitTable) Years() []int {
	years := make([]int, 0, len(t.limits))
	for y := range t.limits {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Sum adds the limits for every year in [from, to]. Years past the table are counted
// at the last limit without walking them.
func (t LimitTable) Sum(from, to int) decimal.Decimal {
	if len(t.limits) == 0 || to < from {
		return zero
	}
	total := zero
	for y := max(from, t.firstYear); y <= min(to, t.lastYear); y++ {
		total = total.Add(t.limits[y])
	}
	if to > t.lastYear {
		extra := to - max(from, t.lastYear+1) + 1
		total = total.Add(t.limits[t.lastYear].Mul(decimal.NewFromInt(int64(extra))))
	}
	return total
}

// RoomPolicy selects which figure is the baseline for the overcontribution check.
type RoomPolicy int

const (
	// LifetimeTable computes room from birth year, residency and the limit table.
	// A manually entered room is reported alongside but never used in the check.
	LifetimeTable RoomPolicy = iota
	// ManualOverride takes the user's entered room as the baseline instead.
	ManualOverride
)

func (p RoomPolicy) String() string {
	switch p {
	case LifetimeTable:
		return "lifetime_table"
	case ManualOverride:
		return "manual_override"
	default:
		return "unknown"
	}
}

// ParseRoomPolicy accepts the String form; anything else is LifetimeTable.
func ParseRoomPolicy(s string) RoomPolicy {
	if s == ManualOverride.String() {
		return ManualOverride
	}
	return LifetimeTable
}

type TFSARecord struct {
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
}

type TFSAProfile struct {
	BirthYear          int             `json:"birth_year"`
	ResidencySinceYear int             `json:"residency_since_year"`
	ManualCurrentRoom  decimal.Decimal `json:"manual_current_room"`
	Contributions      []TFSARecord    `json:"contributions"`
	Withdrawals        []TFSARecord    `json:"withdrawals"`
}

type TFSARoom struct {
	Policy                 string          `json:"policy"`
	EligibleFromYear       int             `json:"eligible_from_year"`
	LifetimeMaxRoom        decimal.Decimal `json:"lifetime_max_room"`
	TotalContributions     decimal.Decimal `json:"total_contributions"`
	TotalWithdrawals       decimal.Decimal `json:"total_withdrawals"`
	NetUsage               decimal.Decimal `json:"net_usage"`
	CurrentYearWithdrawals decimal.Decimal `json:"current_year_withdrawals"`
	AvailableRoom          decimal.Decimal `json:"available_room"`
	Overcontributed        bool            `json:"overcontributed"`
	OvercontributionAmount decimal.Decimal `json:"overcontribution_amount"`
	MonthlyPenaltyExposure decimal.Decimal `json:"monthly_penalty_exposure"`
	NextYearRoom           decimal.Decimal `json:"next_year_room"`
	// ManualRoomDelta is the entered room minus the computed available room.
	ManualRoomDelta decimal.Decimal `json:"manual_room_delta"`
}

// EligibleFromYear is the first year the holder is 18, resident, and TFSAs exist.
func (p TFSAProfile) EligibleFromYear() int {
	year := p.BirthYear + tfsaMinimumAge
	if p.ResidencySinceYear > year {
		year = p.ResidencySinceYear
	}
	if year < tfsaFirstYear {
		year = tfsaFirstYear
	}
	return year
}

func (p TFSAProfile) validate(currentYear int) error {
	if p.BirthYear < tfsaMinBirthYear || p.BirthYear > currentYear {
		return invalid("birth_year", "must be a calendar year from 1900 on, not in the future")
	}
	if p.ResidencySinceYear < 0 || p.ResidencySinceYear > currentYear {
		return invalid("residency_since_year", "must not be after the current year")
	}
	if err := requireNonNegative("manual_current_room", p.ManualCurrentRoom); err != nil {
		return err
	}
	for _, r := range p.Contributions {
		if err := r.validate("contributions", currentYear); err != nil {
			return err
		}
	}
	for _, r := range p.Withdrawals {
		if err := r.validate("withdrawals", currentYear); err != nil {
			return err
		}
	}
	return nil
}

func (r TFSARecord) validate(field string, currentYear int) error {
	if r.Amount.IsNegative() {
		return invalid(field, "amounts must not be negative")
	}
	if r.Year < tfsaFirstYear || r.Year > currentYear {
		return invalid(field, "year must be between 2009 and the current year")
	}
	return nil
}

func sumRecords(records []TFSARecord, keep func(TFSARecord) bool) decimal.Decimal {
	total := zero
	for _, r := range records {
		if keep == nil || keep(r) {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// LifetimeMaxRoom sums the annual limits from the eligibility year through currentYear.
func LifetimeMaxRoom(p TFSAProfile, currentYear int, limits LimitTable) decimal.Decimal {
	from := p.EligibleFromYear()
	if from > currentYear {
		return zero
	}
	return limits.Sum(from, currentYear)
}

// CalculateRoom reconciles contributions and withdrawals against the room baseline
// chosen by policy. Withdrawals are re-credited on January 1 of the following year, so
// only withdrawals from before currentYear add to AvailableRoom; those made during
// currentYear show up in NextYearRoom.
func CalculateRoom(p TFSAProfile, currentYear int, policy RoomPolicy, limits LimitTable) (TFSARoom, error) {
	if currentYear < tfsaFirstYear || currentYear > tfsaLastYear {
		return TFSARoom{}, invalid("current_year", "must be between 2009 and 2100")
	}
	if err := p.validate(currentYear); err != nil {
		return TFSARoom{}, err
	}

	lifetime := LifetimeMaxRoom(p, currentYear, limits)
	contributions := sumRecords(p.Contributions, nil)
	withdrawals := sumRecords(p.Withdrawals, nil)
	thisYear := func(r TFSARecord) bool { return r.Year == currentYear }
	priorYears := func(r TFSARecord) bool { return r.Year < currentYear }
	currentYearWithdrawals := sumRecords(p.Withdrawals, thisYear)
	recredited := sumRecords(p.Withdrawals, priorYears)

	lifetimeAvailable := lifetime.Sub(contributions).Add(recredited)
	available := lifetimeAvailable
	if policy == ManualOverride {
		available = p.ManualCurrentRoom.Sub(contributions).Add(recredited)
	}

	over := zero
	if available.IsNegative() {
		over = available.Neg()
	}

	return TFSARoom{
		Policy:                 policy.String(),
		EligibleFromYear:       p.EligibleFromYear(),
		LifetimeMaxRoom:        cents(lifetime),
		TotalContributions:     cents(contributions),
		TotalWithdrawals:       cents(withdrawals),
		NetUsage:               cents(contributions.Sub(withdrawals)),
		CurrentYearWithdrawals: cents(currentYearWithdrawals),
		AvailableRoom:          cents(available),
		Overcontributed:        over.IsPositive(),
		OvercontributionAmount: cents(over),
		MonthlyPenaltyExposure: cents(over.Mul(penaltyRatePerMonth)),
		NextYearRoom:           cents(available.Add(limits.Limit(currentYear + 1)).Add(currentYearWithdrawals)),
		ManualRoomDelta:        cents(p.ManualCurrentRoom.Sub(lifetimeAvailable)),
	}, nil
}
