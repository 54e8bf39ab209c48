// Package daterange resolves natural-language time expressions such as
// "last month" or "between 2024-01-01 and 2024-02-01" into concrete,
// inclusive calendar ranges relative to a caller-supplied reference date.
package daterange

import "time"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// StartOfISOWeek returns the Monday of the ISO week containing t.
func StartOfISOWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return Day(t).AddDate(0, 0, -offset)
}

// ShiftMonths moves t back by n months, clamping the day to the last valid
// day of the target month (Mar 31 - 1 month = Feb 28 or 29).
func ShiftMonths(t time.Time, n int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 - n
	year := floorDiv(total, 12)
	month := time.Month(total - year*12 + 1)
	return clampedDate(year, month, t.Day())
}

// ShiftYears moves t back by n years with the same clamping as ShiftMonths,
// so Feb 29 lands on Feb 28 in a non-leap year.
func ShiftYears(t time.Time, n int) time.Time {
	return clampedDate(t.Year()-n, t.Month(), t.Day())
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
