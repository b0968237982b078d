package progress

import (
	"fmt"
	"strings"
	"time"
)

// Cell is one slot of a month grid. Blank cells pad the first week.
type Cell struct {
	Day   int  `json:"day,omitempty"`
	Blank bool `json:"blank,omitempty"`
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// CalendarGrid returns leading blanks equal to the weekday of day 1
// (Sunday = 0) followed by the days of the month.
func CalendarGrid(year int, month time.Month) []Cell {
	lead := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	n := DaysInMonth(year, month)
	cells := make([]Cell, 0, lead+n)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for d := 1; d <= n; d++ {
		cells = append(cells, Cell{Day: d})
	}
	return cells
}

// MonthPrefix is the "YYYY-MM" prefix shared by every date in the month.
func MonthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func DateOf(year int, month time.Month, day int) string {
	return fmt.Sprintf("%s-%02d", MonthPrefix(year, month), day)
}

func CountInMonth(dates []string, year int, month time.Month) int {
	prefix := MonthPrefix(year, month) + "-"
	n := 0
	for _, d := range dates {
		if strings.HasPrefix(d, prefix) {
			n++
		}
	}
	return n
}
