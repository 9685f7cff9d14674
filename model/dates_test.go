package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateToDays(t *testing.T) {
	tests := []struct {
		date string
		days int
	}{
		{"2200.01.01", 0},
		{"2200.01.02", 1},
		{"2200.02.01", 30},
		{"2200.12.30", 359},
		{"2201.01.01", 360},
		{"2234.06.14", 34*360 + 5*30 + 13},
		{"2199.12.30", -1},
		{"1.01.01", -2199 * 360},
	}
	for _, tc := range tests {
		got, err := DateToDays(tc.date)
		require.NoError(t, err, tc.date)
		assert.Equal(t, tc.days, got, tc.date)
	}
}

func TestDateToDaysMalformed(t *testing.T) {
	for _, date := range []string{"", "none", "2200.01", "2200.01.01.05", "x.y.z"} {
		_, err := DateToDays(date)
		assert.Error(t, err, date)
	}
}

func TestDaysToDateRoundTrip(t *testing.T) {
	for _, days := range []int{0, 1, 29, 30, 359, 360, 12345, 100000} {
		date := DaysToDate(days)
		back, err := DateToDays(date)
		require.NoError(t, err, date)
		assert.Equal(t, days, back, date)
	}
}

func TestDaysToDateFormat(t *testing.T) {
	assert.Equal(t, "2200.01.01", DaysToDate(0))
	assert.Equal(t, "2200.02.01", DaysToDate(30))
	assert.Equal(t, "2234.06.14", DaysToDate(34*360+5*30+13))
}
