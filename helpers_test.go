package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func assertNear(t *testing.T, want string, got decimal.Decimal, tol string) {
	t.Helper()
	diff := dec(want).Sub(got).Abs()
	assert.Truef(t, diff.LessThanOrEqual(dec(tol)), "want %s ± %s, got %s", want, tol, got)
}

func testRates(t *testing.T) *Rates {
	t.Helper()
	rates, err := LoadRates("")
	require.NoError(t, err)
	return rates
}
