package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtStartOfDay(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	instant := AtStartOfDay(NewDate(2020, time.July, 1), auckland)
	// NZST is UTC+12 in July
	assert.Equal(t, time.Date(2020, time.June, 30, 12, 0, 0, 0, time.UTC), instant.UTC())

	assert.Equal(t, NewDate(2020, time.July, 1), AtStartOfDay(NewDate(2020, time.July, 1), nil))
}

func TestStartOfMonthAndDateOf(t *testing.T) {
	ts := time.Date(2021, time.March, 17, 22, 10, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2021, time.March, 1), StartOfMonth(ts))
	assert.Equal(t, NewDate(2021, time.March, 17), DateOf(ts))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-07-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2020, time.July, 1), d)

	_, err = ParseDate("07/01/2020")
	assert.Error(t, err)
}

func TestRoundAmountHalfUp(t *testing.T) {
	cases := map[string]string{
		"5.945":   "5.95",
		"5.944":   "5.94",
		"0.005":   "0.01",
		"-7.005":  "-7.01",
		"100":     "100",
		"2.49999": "2.5",
	}
	for in, want := range cases {
		got := RoundAmount(mustDecimal(t, in))
		assert.True(t, got.Equal(mustDecimal(t, want)), "round %s: got %s want %s", in, got, want)
	}
}

func TestPaginationHasMore(t *testing.T) {
	assert.True(t, NewPaginationResponse(3, 2, 0).HasMore())
	assert.False(t, NewPaginationResponse(3, 2, 2).HasMore())
	assert.False(t, NewPaginationResponse(0, 50, 0).HasMore())
}
