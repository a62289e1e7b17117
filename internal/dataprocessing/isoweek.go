package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var weekKeyPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// WeekShare is the number of days of a month falling in one ISO week
type WeekShare struct {
	Key  string
	Days int
}

// ISOWeekKey renders an ISO week-year and week number as YYYY-Www
func ISOWeekKey(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekKeyOf returns the ISO week key containing t
func WeekKeyOf(t time.Time) string {
	y, w := t.ISOWeek()
	return ISOWeekKey(y, w)
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in the ISO week-year
func WeeksInYear(year int) int {
	// Dec 28 always falls in the last ISO week of its year
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// WeekStart returns the Monday (UTC) of the given ISO week
func WeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// ParseWeekKey splits a YYYY-Www key and checks the week exists in that year
func ParseWeekKey(key string) (year, week int, err error) {
	m := weekKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid ISO week key %q", key)
	}
	year, _ = strconv.Atoi(m[1])
	week, _ = strconv.Atoi(m[2])
	if week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("week %d out of range for %d", week, year)
	}
	return year, week, nil
}

// AddWeeks shifts an ISO week key by n weeks (n may be negative)
func AddWeeks(key string, n int) (string, error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return "", err
	}
	return WeekKeyOf(WeekStart(year, week).AddDate(0, 0, 7*n)), nil
}

// WeeksBetween returns the number of weeks from a to b (negative when b precedes a)
func WeeksBetween(a, b string) (int, error) {
	ya, wa, err := ParseWeekKey(a)
	if err != nil {
		return 0, err
	}
	yb, wb, err := ParseWeekKey(b)
	if err != nil {
		return 0, err
	}
	days := WeekStart(yb, wb).Sub(WeekStart(ya, wa)).Hours() / 24
	return int(days) / 7, nil
}

// MonthWeekShares lists the ISO weeks overlapping a calendar month, in order,
// with the count of that month's days inside each week. Days sum to the month length.
func MonthWeekShares(year int, month time.Month) []WeekShare {
	var shares []WeekShare
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		key := WeekKeyOf(day)
		if n := len(shares); n > 0 && shares[n-1].Key == key {
			shares[n-1].Days++
		} else {
			shares = append(shares, WeekShare{Key: key, Days: 1})
		}
		day = day.AddDate(0, 0, 1)
	}
	return shares
}

// RepresentativeWeek is the ISO week containing the 15th of the month
func RepresentativeWeek(year int, month time.Month) string {
	return WeekKeyOf(time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
}
