package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShiftMonths(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{from: "2025-03-31", n: 1, want: "2025-02-28"},
		{from: "2024-03-31", n: 1, want: "2024-02-29"},
		{from: "2024-03-30", n: 1, want: "2024-02-29"},
		{from: "2025-05-31", n: 1, want: "2025-04-30"},
		{from: "2025-01-15", n: 1, want: "2024-12-15"},
		{from: "2025-01-31", n: 25, want: "2022-12-31"},
		{from: "2025-10-15", n: 0, want: "2025-10-15"},
		{from: "2025-10-15", n: 12, want: "2024-10-15"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got := ShiftMonths(date(t, tt.from), tt.n)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestShiftYears(t *testing.T) {
	assert.Equal(t, "2023-02-28", ShiftYears(date(t, "2024-02-29"), 1).Format("2006-01-02"))
	assert.Equal(t, "2020-02-29", ShiftYears(date(t, "2024-02-29"), 4).Format("2006-01-02"))
	assert.Equal(t, "2015-06-30", ShiftYears(date(t, "2025-06-30"), 10).Format("2006-01-02"))
}

func TestStartOfISOWeek(t *testing.T) {
	tests := map[string]string{
		"2025-10-13": "2025-10-13", // Monday
		"2025-10-15": "2025-10-13",
		"2025-10-19": "2025-10-13", // Sunday
		"2025-01-01": "2024-12-30",
	}

	for in, want := range tests {
		assert.Equal(t, want, StartOfISOWeek(date(t, in)).Format("2006-01-02"), in)
	}
}

func TestMonthBounds(t *testing.T) {
	ref := date(t, "2024-02-10")
	assert.Equal(t, "2024-02-01", StartOfMonth(ref).Format("2006-01-02"))
	assert.Equal(t, "2024-02-29", EndOfMonth(ref).Format("2006-01-02"))

	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 2, floorDiv(5, 2))
	assert.Equal(t, -3, floorDiv(-5, 2))
	assert.Equal(t, -1, floorDiv(-12, 12))
	assert.Equal(t, 0, floorDiv(0, 12))
}
