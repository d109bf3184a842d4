package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmortize(t *testing.T) {
	a, err := Amortize(dec("15000"), dec("6"), 5)
	require.NoError(t, err)
	assert.Equal(t, 60, a.Months)
	assertDec(t, "289.99", a.MonthlyPayment)
	assertDec(t, "17399.52", a.TotalPayments)
	assertDec(t, "2399.52", a.TotalInterest)

	for _, years := range []int{0, -1, maxLoanYears + 1, 1 << 62} {
		_, err = Amortize(dec("15000"), dec("6"), years)
		var ie *InputError
		require.Truef(t, errors.As(err, &ie), "years=%d", years)
		assert.Equal(t, "term_years", ie.Field)
	}

	_, err = Amortize(dec("15000"), dec("6"), maxLoanYears)
	require.NoError(t, err)
}

func TestGeneratePayoffSchedule_EndsAtZero(t *testing.T) {
	schedule, err := GeneratePayoffSchedule(dec("15000"), dec("6"), 5)
	require.NoError(t, err)
	require.Len(t, schedule, 60)

	assertDec(t, "75", schedule[0].Interest)
	assertDec(t, "214.99", schedule[0].Principal)
	assertDec(t, "14785.01", schedule[0].Balance)

	last := schedule[len(schedule)-1]
	assert.True(t, last.Balance.IsZero())

	paid := zero
	for _, m := range schedule {
		paid = paid.Add(m.Principal)
	}
	assertDec(t, "15000", paid)
}

func TestCalculatePayoff(t *testing.T) {
	res, err := CalculatePayoff(PayoffRequest{Principal: dec("12000"), AnnualRatePct: zero, Years: 1})
	require.NoError(t, err)
	assertDec(t, "1000", res.MonthlyPayment)
	assert.Len(t, res.Schedule, 12)
	assertDec(t, "0", res.TotalInterest)
}

func TestCalculatePayoff_RejectsUnboundedTerms(t *testing.T) {
	for _, years := range []int{0, maxLoanYears + 1, 1_000_000_000, 1 << 62} {
		_, err := CalculatePayoff(PayoffRequest{Principal: dec("1000"), AnnualRatePct: dec("5"), Years: years})
		var ie *InputError
		require.Truef(t, errors.As(err, &ie), "years=%d", years)
		assert.Equal(t, "years", ie.Field)
	}
}
