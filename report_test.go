package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatField(t *testing.T) {
	var nilDec *decimal.Decimal
	tests := []struct {
		name  string
		field string
		v     any
		want  string
	}{
		{"money", "net_cost", dec("22399.52"), "$22,399.52"},
		{"negative money", "net_worth_impact", dec("-8051.03"), "-$8,051.03"},
		{"whole percent", "loan_rate_pct", dec("6"), "6.00%"},
		{"fraction rate", "marginal_rate", dec("0.2965"), "29.65%"},
		{"rate mid-name", "average_rate_before", dec("0.243260"), "24.33%"},
		{"rate segment only", "effective_savings_rate", dec("0.2965"), "29.65%"},
		{"payment is money", "contract_payment", dec("2469.61"), "$2,469.61"},
		{"years", "time_to_save_years", dec("6.33"), "6.3 years"},
		{"nil pointer", "break_even_rate", nilDec, "n/a"},
		{"bool", "reachable", true, "Yes"},
		{"identifier", "best_scenario", "save_first", "Save first"},
		{"int", "months_to_save", 76, "76"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatField(tt.field, reflect.ValueOf(tt.v)))
		})
	}
}

func TestBuildReport_Purchase(t *testing.T) {
	res, err := ComparePurchase(carPurchase())
	require.NoError(t, err)

	generated := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	rep := buildReport("Large Purchase Comparison", "purchase", res, generated)
	assert.Equal(t, "purchase", rep.Calculator)
	assert.Equal(t, generated, rep.Generated)

	titles := make([]string, 0, len(rep.Sections))
	for _, s := range rep.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Summary", "Lump sum", "Finance", "Save first"}, titles)

	rows := map[string]string{}
	for _, r := range rep.Sections[2].Rows {
		rows[r.Label] = r.Value
	}
	assert.Equal(t, "$289.99", rows["Monthly payment"])
	assert.Equal(t, "$2,399.52", rows["Total interest"])
}

func TestBuildReport_SlicesBecomeTables(t *testing.T) {
	res, err := CalculatePayoff(PayoffRequest{Principal: dec("1200"), AnnualRatePct: zero, Years: 1})
	require.NoError(t, err)

	rep := buildReport("Loan Payoff Schedule", "payoff", res, time.Now())
	require.NotEmpty(t, rep.Sections)
	require.Len(t, rep.Sections[0].Tables, 1)
	tbl := rep.Sections[0].Tables[0]
	assert.Equal(t, "Schedule", tbl.Title)
	assert.Len(t, tbl.Rows, 12)
	assert.Equal(t, []string{"Month", "Interest", "Principal", "Payment", "Balance"}, tbl.Columns)
	assert.Equal(t, "$100.00", tbl.Rows[0][3])
	assert.Equal(t, "$0.00", tbl.Rows[11][4])
}

func TestBuildReport_RRSPRatesArePercentages(t *testing.T) {
	res, err := CalculateRRSPSavings(RRSPRequest{AnnualIncome: dec("100000"), RRSPContribution: dec("10000")}, testRates(t).Tax)
	require.NoError(t, err)

	rep := buildReport("RRSP Tax Savings", "rrsp", res, time.Now())
	rows := map[string]string{}
	for _, r := range rep.Sections[0].Rows {
		rows[r.Label] = r.Value
	}
	for _, label := range []string{"Marginal rate", "Average rate before", "Average rate after", "Effective savings rate"} {
		assert.Regexp(t, `^\d+\.\d\d%$`, rows[label], label)
	}
	assert.Equal(t, "$2,965.00", rows["Total tax savings"])
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Total tax savings", humanize("total_tax_savings"))
	assert.Equal(t, "", humanize(""))
}
