package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompoundOrder_Apply(t *testing.T) {
	rate := dec("0.10")

	end, growth, applied := AddThenGrow.Apply(dec("1000"), dec("100"), rate)
	assertDec(t, "1210", end)
	assertDec(t, "110", growth)
	assertDec(t, "100", applied)

	end, growth, applied = SubtractThenGrow.Apply(dec("1000"), dec("100"), rate)
	assertDec(t, "990", end)
	assertDec(t, "90", growth)
	assertDec(t, "100", applied)

	// Never withdraws more than is there.
	end, _, applied = SubtractThenGrow.Apply(dec("50"), dec("100"), rate)
	assertDec(t, "0", end)
	assertDec(t, "50", applied)
}

func TestProject_AnnualContributions(t *testing.T) {
	req := ProjectionRequest{
		Principal:            dec("10000"),
		PeriodicContribution: dec("1000"),
		AnnualRatePct:        dec("7"),
		Periods:              10,
	}
	res, err := Project(req)
	require.NoError(t, err)

	require.Len(t, res.Periods, 10)
	assert.Equal(t, "add_then_grow", res.Order)
	assertDec(t, "34455.11", res.FinalBalance)
	assertDec(t, "20000", res.TotalContributions)
	assertDec(t, "14455.11", res.TotalGrowth)
	assertDec(t, "11770", res.Periods[0].EndingBalance)

	for i := 1; i < len(res.Periods); i++ {
		prev, cur := res.Periods[i-1], res.Periods[i]
		assert.Equal(t, i+1, cur.Period)
		// ending(i) = (ending(i-1) + contribution) * 1.07, within rounding.
		want := prev.EndingBalance.Add(cur.Contribution).Mul(dec("1.07"))
		assertNear(t, want.String(), cur.EndingBalance, "0.02")
	}

	again, err := Project(req)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestProject_WeeklySplitsTheRate(t *testing.T) {
	res, err := Project(ProjectionRequest{
		Principal:      dec("5200"),
		AnnualRatePct:  dec("5.2"),
		Periods:        1,
		PeriodsPerYear: 52,
	})
	require.NoError(t, err)
	assertDec(t, "5205.20", res.FinalBalance)
}

func TestProject_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   ProjectionRequest
		field string
	}{
		{"no periods", ProjectionRequest{Principal: dec("1")}, "periods"},
		{"too many periods", ProjectionRequest{Periods: maxProjectionPeriods + 1}, "periods"},
		{"negative principal", ProjectionRequest{Principal: dec("-1"), Periods: 1}, "principal"},
		{"rate at -100", ProjectionRequest{AnnualRatePct: dec("-100"), Periods: 1}, "annual_rate_pct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(tt.req)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestProjectWithdrawals_InflationAdjusted(t *testing.T) {
	res, err := ProjectWithdrawals(WithdrawalRequest{
		StartingBalance:  dec("100000"),
		AnnualRatePct:    dec("5"),
		Periods:          30,
		Strategy:         "inflation_adjusted",
		AnnualWithdrawal: dec("6000"),
		InflationPct:     dec("2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "subtract_then_grow", res.Order)
	assert.Equal(t, "inflation_adjusted", res.Strategy)
	require.Len(t, res.Periods, 30)
	assertDec(t, "6000", res.Periods[0].Withdrawal)
	assertDec(t, "6120", res.Periods[1].Withdrawal)
	assertDec(t, "98700", res.Periods[0].EndingBalance)
	assert.Equal(t, 23, res.DepletedInPeriod)
	assertDec(t, "0", res.FinalBalance)
	assertNear(t, "166670.95", res.TotalWithdrawn, "0.01")
}

func TestProjectWithdrawals_IncomeOnlyTakesTheYield(t *testing.T) {
	res, err := ProjectWithdrawals(WithdrawalRequest{
		StartingBalance: dec("200000"),
		AnnualRatePct:   dec("4"),
		Periods:         25,
		Strategy:        "income_only",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.DepletedInPeriod)
	assertDec(t, "8000", res.Periods[0].Withdrawal)
	// Taking 4% out first and growing the rest by 4% leaves 200000 × 0.96 × 1.04.
	assertDec(t, "199680", res.Periods[0].EndingBalance)
	assertDec(t, "7987.20", res.Periods[1].Withdrawal)
	for i := 1; i < len(res.Periods); i++ {
		assert.True(t, res.Periods[i].EndingBalance.LessThan(res.Periods[i-1].EndingBalance))
	}
}

func TestProjectWithdrawals_UnknownStrategy(t *testing.T) {
	_, err := ProjectWithdrawals(WithdrawalRequest{StartingBalance: dec("1"), Periods: 1, Strategy: "yolo"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestInflationAdjustedWithdrawal_CarriesPreviousAmount(t *testing.T) {
	w := InflationAdjustedWithdrawal{Initial: dec("6000"), InflationPct: dec("2")}
	first := w.Amount(1, dec("100000"), zero)
	assertDec(t, "6000", first)
	second := w.Amount(2, zero, first)
	assertDec(t, "6120", second)
	assertDec(t, "6242.4", w.Amount(3, zero, second))
}

func TestProjectWithdrawals_MaxPeriods(t *testing.T) {
	req := WithdrawalRequest{
		StartingBalance:  dec("1000000"),
		AnnualRatePct:    dec("5"),
		Periods:          maxProjectionPeriods,
		Strategy:         "inflation_adjusted",
		AnnualWithdrawal: dec("40000"),
		InflationPct:     dec("2"),
	}

	done := make(chan struct{})
	var res WithdrawalProjection
	var err error
	go func() {
		defer close(done)
		res, err = ProjectWithdrawals(req)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("projection over the maximum horizon did not finish in time")
	}

	require.NoError(t, err)
	require.Len(t, res.Periods, maxProjectionPeriods)
	assert.Positive(t, res.DepletedInPeriod)
	assertDec(t, "0", res.FinalBalance)
	// Once depleted, later periods ask for more but withdraw nothing.
	assertDec(t, "0", res.Periods[maxProjectionPeriods-1].Withdrawal)
}
