package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBisect(t *testing.T) {
	// x² - 2 on [0, 2]
	f := func(x decimal.Decimal) decimal.Decimal { return x.Mul(x).Sub(dec("2")) }
	root, ok := bisect(f, zero, dec("2"), breakEvenTolerance)
	require.True(t, ok)
	assertNear(t, "1.4142136", root, "0.0000002")

	_, ok = bisect(f, dec("2"), dec("3"), breakEvenTolerance)
	assert.False(t, ok)
}

func TestBisect_RootAtEndpoint(t *testing.T) {
	f := func(x decimal.Decimal) decimal.Decimal { return x.Sub(dec("1")) }
	root, ok := bisect(f, zero, dec("1"), breakEvenTolerance)
	require.True(t, ok)
	assertDec(t, "1", root)
}
