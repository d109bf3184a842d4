package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifetimeMaxRoom(t *testing.T) {
	limits := testRates(t).TFSALimits

	tests := []struct {
		name    string
		profile TFSAProfile
		year    int
		want    string
	}{
		{"eligible since 2009", TFSAProfile{BirthYear: 1990, ResidencySinceYear: 2009}, 2025, "102000"},
		{"turns 18 in 2020", TFSAProfile{BirthYear: 2002, ResidencySinceYear: 2002}, 2025, "38500"},
		{"arrived 2024", TFSAProfile{BirthYear: 1980, ResidencySinceYear: 2024}, 2025, "14000"},
		{"not yet 18", TFSAProfile{BirthYear: 2010}, 2025, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDec(t, tt.want, LifetimeMaxRoom(tt.profile, tt.year, limits))
		})
	}
}

func TestEligibleFromYear(t *testing.T) {
	assert.Equal(t, 2009, TFSAProfile{BirthYear: 1960}.EligibleFromYear())
	assert.Equal(t, 2018, TFSAProfile{BirthYear: 2000}.EligibleFromYear())
	assert.Equal(t, 2021, TFSAProfile{BirthYear: 1970, ResidencySinceYear: 2021}.EligibleFromYear())
}

func TestCalculateRoom_LargeContribution(t *testing.T) {
	limits := testRates(t).TFSALimits
	p := TFSAProfile{
		BirthYear:          1990,
		ResidencySinceYear: 2009,
		ManualCurrentRoom:  zero,
		Contributions:      []TFSARecord{{Year: 2024, Amount: dec("50000")}},
	}

	t.Run("lifetime table", func(t *testing.T) {
		room, err := CalculateRoom(p, 2025, LifetimeTable, limits)
		require.NoError(t, err)
		assert.Equal(t, "lifetime_table", room.Policy)
		assertDec(t, "102000", room.LifetimeMaxRoom)
		assertDec(t, "52000", room.AvailableRoom)
		assert.False(t, room.Overcontributed)
		assertDec(t, "0", room.OvercontributionAmount)
		assertDec(t, "-52000", room.ManualRoomDelta)
	})

	t.Run("manual override", func(t *testing.T) {
		room, err := CalculateRoom(p, 2025, ManualOverride, limits)
		require.NoError(t, err)
		assert.True(t, room.Overcontributed)
		assertDec(t, "50000", room.OvercontributionAmount)
		assertDec(t, "500", room.MonthlyPenaltyExposure)
	})
}

func TestCalculateRoom_WithdrawalsRecreditNextYear(t *testing.T) {
	limits := testRates(t).TFSALimits
	p := TFSAProfile{
		BirthYear:          1985,
		ResidencySinceYear: 1985,
		Contributions: []TFSARecord{
			{Year: 2015, Amount: dec("60000")},
			{Year: 2023, Amount: dec("30000")},
		},
		Withdrawals: []TFSARecord{
			{Year: 2024, Amount: dec("4000")},
			{Year: 2025, Amount: dec("6000")},
		},
	}

	room, err := CalculateRoom(p, 2025, LifetimeTable, limits)
	require.NoError(t, err)
	// 102000 - 90000 + 4000 (2024 withdrawal); the 2025 one waits for next year.
	assertDec(t, "16000", room.AvailableRoom)
	assertDec(t, "6000", room.CurrentYearWithdrawals)
	assertDec(t, "10000", room.TotalWithdrawals)
	assertDec(t, "80000", room.NetUsage)
	// 16000 + 7000 (limit carried forward) + 6000
	assertDec(t, "29000", room.NextYearRoom)
}

func TestCalculateRoom_Validation(t *testing.T) {
	limits := testRates(t).TFSALimits

	tests := []struct {
		name  string
		p     TFSAProfile
		field string
	}{
		{"future birth year", TFSAProfile{BirthYear: 2030}, "birth_year"},
		{"negative manual room", TFSAProfile{BirthYear: 1990, ManualCurrentRoom: dec("-1")}, "manual_current_room"},
		{"pre-2009 contribution", TFSAProfile{BirthYear: 1990, Contributions: []TFSARecord{{Year: 2008, Amount: dec("10")}}}, "contributions"},
		{"negative withdrawal", TFSAProfile{BirthYear: 1990, Withdrawals: []TFSARecord{{Year: 2020, Amount: dec("-10")}}}, "withdrawals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateRoom(tt.p, 2025, LifetimeTable, limits)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestLimitTable_RepeatsLastLimit(t *testing.T) {
	limits := testRates(t).TFSALimits
	assertDec(t, "7000", limits.Limit(2030))
	assertDec(t, "0", limits.Limit(2008))
	assert.Equal(t, 2009, limits.Years()[0])
}

func TestParseRoomPolicy(t *testing.T) {
	assert.Equal(t, ManualOverride, ParseRoomPolicy("manual_override"))
	assert.Equal(t, LifetimeTable, ParseRoomPolicy(""))
	assert.Equal(t, LifetimeTable, ParseRoomPolicy("bogus"))
}

func TestCalculateRoom_RejectsOutOfRangeYears(t *testing.T) {
	limits := testRates(t).TFSALimits
	p := TFSAProfile{BirthYear: 1990, ResidencySinceYear: 2009}

	for _, year := range []int{2008, tfsaLastYear + 1, 2_000_000_000} {
		_, err := CalculateRoom(p, year, LifetimeTable, limits)
		var ie *InputError
		require.Truef(t, errors.As(err, &ie), "year=%d", year)
		assert.Equal(t, "current_year", ie.Field)
	}

	room, err := CalculateRoom(p, tfsaLastYear, LifetimeTable, limits)
	require.NoError(t, err)
	// 102000 through 2025, then 75 more years at 7000.
	assertDec(t, "627000", room.LifetimeMaxRoom)
}

func TestLimitTable_Sum(t *testing.T) {
	limits := testRates(t).TFSALimits

	assertDec(t, "102000", limits.Sum(2009, 2025))
	assertDec(t, "0", limits.Sum(2025, 2024))
	assertDec(t, "10000", limits.Sum(2000, 2010))
	assertDec(t, "21000", limits.Sum(2030, 2032))
	assertDec(t, "14000", limits.Sum(2025, 2026))
	// Past the table the total is linear in the span, not walked year by year.
	assertDec(t, "7000000000", limits.Sum(3_000_000_000, 3_000_999_999))

	var empty LimitTable
	assertDec(t, "0", empty.Sum(2009, 2025))
}
