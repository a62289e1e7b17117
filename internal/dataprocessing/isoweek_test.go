package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeksInYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2015, 53},
		{2020, 53},
		{2021, 52},
		{2024, 52},
		{2025, 52},
		{2026, 53},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeeksInYear(tt.year), "year %d", tt.year)
	}
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), WeekStart(2025, 1))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), WeekStart(2024, 1))
	assert.Equal(t, "2025-W10", WeekKeyOf(WeekStart(2025, 10)))
}

func TestParseWeekKey(t *testing.T) {
	tests := []struct {
		key     string
		year    int
		week    int
		wantErr bool
	}{
		{key: "2025-W01", year: 2025, week: 1},
		{key: "2020-W53", year: 2020, week: 53},
		{key: "2025-W53", wantErr: true},
		{key: "2025-W00", wantErr: true},
		{key: "2025-w01", wantErr: true},
		{key: "2025W01", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			y, w, err := ParseWeekKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, y)
			assert.Equal(t, tt.week, w)
		})
	}
}

func TestAddWeeks(t *testing.T) {
	tests := []struct {
		key  string
		n    int
		want string
	}{
		{"2024-W52", 1, "2025-W01"},
		{"2020-W53", 1, "2021-W01"},
		{"2025-W01", -1, "2024-W52"},
		{"2025-W10", 0, "2025-W10"},
		{"2025-W10", 12, "2025-W22"},
	}
	for _, tt := range tests {
		got, err := AddWeeks(tt.key, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := AddWeeks("bogus", 1)
	assert.Error(t, err)
}

func TestWeeksBetween(t *testing.T) {
	n, err := WeeksBetween("2024-W50", "2025-W02")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = WeeksBetween("2025-W02", "2024-W50")
	require.NoError(t, err)
	assert.Equal(t, -4, n)
}

func TestMonthWeekShares(t *testing.T) {
	shares := MonthWeekShares(2025, time.April)
	assert.Equal(t, []WeekShare{
		{Key: "2025-W14", Days: 6},
		{Key: "2025-W15", Days: 7},
		{Key: "2025-W16", Days: 7},
		{Key: "2025-W17", Days: 7},
		{Key: "2025-W18", Days: 3},
	}, shares)

	// January can start in the previous ISO year
	jan := MonthWeekShares(2021, time.January)
	assert.Equal(t, "2020-W53", jan[0].Key)

	for m := time.January; m <= time.December; m++ {
		total := 0
		for _, s := range MonthWeekShares(2024, m) {
			total += s.Days
		}
		assert.Equal(t, time.Date(2024, m+1, 0, 0, 0, 0, 0, time.UTC).Day(), total, "month %s", m)
	}
}

func TestRepresentativeWeek(t *testing.T) {
	assert.Equal(t, "2025-W16", RepresentativeWeek(2025, time.April))
	assert.Equal(t, "2025-W20", RepresentativeWeek(2025, time.May))
}
