package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRRSPSavings_EndToEnd(t *testing.T) {
	tables := testRates(t).Tax

	res, err := CalculateRRSPSavings(RRSPRequest{
		AnnualIncome:     dec("100000"),
		RRSPContribution: dec("10000"),
	}, tables)
	require.NoError(t, err)

	assertDec(t, "100000", res.TaxableIncomeBeforeRRSP)
	assertDec(t, "90000", res.TaxableIncomeAfterRRSP)

	want := ComputeTax(dec("100000"), tables.Federal).Add(ComputeTax(dec("100000"), tables.Provincial)).
		Sub(ComputeTax(dec("90000"), tables.Federal)).Sub(ComputeTax(dec("90000"), tables.Provincial))
	assert.True(t, cents(want).Equal(res.TotalTaxSavings))
	assertDec(t, "2965", res.TotalTaxSavings)
	assertDec(t, "2050", res.FederalSavings)
	assertDec(t, "915", res.ProvincialSavings)
	assertDec(t, "0.2965", res.EffectiveSavingsRate)
	assertDec(t, "0.2965", res.MarginalRate)
}

func TestCalculateRRSPSavings_ContributionBeyondIncome(t *testing.T) {
	res, err := CalculateRRSPSavings(RRSPRequest{
		AnnualIncome:     dec("20000"),
		RRSPContribution: dec("30000"),
		OtherDeductions:  dec("5000"),
	}, testRates(t).Tax)
	require.NoError(t, err)

	assertDec(t, "15000", res.DeductedContribution)
	assertDec(t, "0", res.TaxableIncomeAfterRRSP)
	assertDec(t, "0", res.AverageRateAfter)
}

func TestCalculateRRSPSavings_NoContribution(t *testing.T) {
	res, err := CalculateRRSPSavings(RRSPRequest{AnnualIncome: dec("80000")}, testRates(t).Tax)
	require.NoError(t, err)
	assert.True(t, res.TotalTaxSavings.IsZero())
	assert.True(t, res.EffectiveSavingsRate.IsZero())
}

func TestCalculateRRSPSavings_RejectsNegative(t *testing.T) {
	_, err := CalculateRRSPSavings(RRSPRequest{AnnualIncome: dec("50000"), RRSPContribution: dec("-1")}, testRates(t).Tax)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "rrsp_contribution", ie.Field)
}

func TestCalculateIncomeTax(t *testing.T) {
	res, err := CalculateIncomeTax(IncomeTaxRequest{Income: dec("100000")}, testRates(t).Tax)
	require.NoError(t, err)

	assertDec(t, "17344.38", res.FederalTax)
	assertDec(t, "6981.67", res.ProvincialTax)
	assertDec(t, "24326.05", res.TotalTax)
	assertDec(t, "75673.95", res.AfterTaxIncome)
	assertDec(t, "0.243260", res.AverageRate)
	assert.Len(t, res.FederalBrackets, 2)
}

func TestCalculateIncomeTax_ZeroIncome(t *testing.T) {
	res, err := CalculateIncomeTax(IncomeTaxRequest{Income: zero}, testRates(t).Tax)
	require.NoError(t, err)
	assert.True(t, res.TotalTax.IsZero())
	assert.True(t, res.AverageRate.IsZero())
}
