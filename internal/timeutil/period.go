// Package timeutil provides the week and month bucketing used by every
// pipeline stage. All bucketed dates are UTC midnight so they can be used
// directly as map keys.
package timeutil

import (
	"sort"
	"time"
)

// WeekStart floors t to the Monday of its week.
func WeekStart(t time.Time) time.Time {
	d := date(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart floors t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts a month-start date by n calendar months.
func AddMonths(t time.Time, n int) time.Time {
	return MonthStart(t).AddDate(0, n, 0)
}

// MonthOfWeekShift floors (week + shift weeks) to month start. The
// sanitizer anchors its "prior" and "next" month checks four weeks away
// from the current week rather than on strict calendar months.
func MonthOfWeekShift(week time.Time, weeks int) time.Time {
	return MonthStart(week.AddDate(0, 0, 7*weeks))
}

// LatestMonths returns the n most recent distinct months in ms, ascending.
func LatestMonths(ms []time.Time, n int) []time.Time {
	seen := make(map[time.Time]bool, len(ms))
	var uniq []time.Time
	for _, m := range ms {
		m = MonthStart(m)
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Before(uniq[j]) })
	if len(uniq) > n {
		uniq = uniq[len(uniq)-n:]
	}
	return uniq
}

func date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
