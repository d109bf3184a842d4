package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareInsurance_TermAndInvest(t *testing.T) {
	res, err := CompareInsurance(InsuranceRequest{
		PermanentPremium: dec("3000"),
		TermPremium:      dec("500"),
		Years:            20,
		ReturnPct:        dec("6"),
		CashValueAtEnd:   dec("60000"),
		DeathBenefit:     dec("500000"),
	})
	require.NoError(t, err)

	assertDec(t, "2500", res.AnnualDifference)
	assertDec(t, "50000", res.TotalInvested)
	assertDec(t, "97481.82", res.InvestedBalance)
	assertDec(t, "37481.82", res.Advantage)
	assert.Equal(t, "term_and_invest", res.Recommendation)

	assertDec(t, "500000", res.DeathBenefit)
	assertDec(t, "597481.82", res.TermEstateValue)
	assertDec(t, "500000", res.PermanentEstateValue)

	require.NotNil(t, res.BreakEvenRate)
	assertNear(t, "0.017055", *res.BreakEvenRate, "0.000002")

	require.Len(t, res.Illustrations, 4)
	want := []struct{ rate, balance string }{
		{"3", "69191.21"},
		{"5", "86798.13"},
		{"7", "109662.94"},
		{"10", "157506.25"},
	}
	for i, w := range want {
		assertDec(t, w.rate, res.Illustrations[i].RatePct)
		assertDec(t, w.balance, res.Illustrations[i].InvestedBalance)
	}
}

func TestCompareInsurance_PermanentWhenCashValueIsRich(t *testing.T) {
	res, err := CompareInsurance(InsuranceRequest{
		PermanentPremium: dec("1000"),
		TermPremium:      dec("900"),
		Years:            10,
		ReturnPct:        dec("5"),
		CashValueAtEnd:   dec("250000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "permanent", res.Recommendation)
	assert.True(t, res.Advantage.IsNegative())
	// 100 a year doubling every year only reaches 204600 in ten years.
	assert.Nil(t, res.BreakEvenRate)
}

func TestCompareInsurance_EqualPremiums(t *testing.T) {
	res, err := CompareInsurance(InsuranceRequest{
		PermanentPremium: dec("800"),
		TermPremium:      dec("800"),
		Years:            5,
		ReturnPct:        dec("5"),
	})
	require.NoError(t, err)
	assert.True(t, res.InvestedBalance.IsZero())
	assert.Nil(t, res.BreakEvenRate)
}

func TestCompareInsurance_Validation(t *testing.T) {
	_, err := CompareInsurance(InsuranceRequest{PermanentPremium: dec("100"), TermPremium: dec("200"), Years: 10})
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "permanent_premium", ie.Field)

	_, err = CompareInsurance(InsuranceRequest{PermanentPremium: dec("300"), TermPremium: dec("200"), Years: 10, DeathBenefit: dec("-1")})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "death_benefit", ie.Field)
}
