package main

import "github.com/shopspring/decimal"

const bisectMaxIterations = 200

// breakEvenTolerance is the width of the final bracket around a solved rate fraction.
var breakEvenTolerance = decimal.New(1, -7)

// bisect finds a root of f in [lo, hi]. f must change sign across the interval;
// ok is false when it does not.
func bisect(f func(decimal.Decimal) decimal.Decimal, lo, hi, tol decimal.Decimal) (root decimal.Decimal, ok bool) {
	fLo, fHi := f(lo), f(hi)
	if fLo.IsZero() {
		return lo, true
	}
	if fHi.IsZero() {
		return hi, true
	}
	if fLo.Sign() == fHi.Sign() {
		return zero, false
	}
	two := decimal.NewFromInt(2)
	for i := 0; i < bisectMaxIterations && hi.Sub(lo).GreaterThan(tol); i++ {
		mid := lo.Add(hi).Div(two)
		fMid := f(mid)
		if fMid.IsZero() {
			return mid, true
		}
		if fMid.Sign() == fLo.Sign() {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return lo.Add(hi).Div(two), true
}
