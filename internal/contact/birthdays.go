package contact

import (
	"sort"
	"time"
)

// DefaultBirthdayWindow is the look-ahead used when no day count is given
const DefaultBirthdayWindow = 7

// nextBirthday returns the next anniversary of birth on or after today.
// Feb 29 birthdays fall on Feb 28 in common years.
func nextBirthday(birth, today time.Time) time.Time {
	today = truncateDay(today)

	candidate := anniversary(birth, today.Year())
	if candidate.Before(today) {
		candidate = anniversary(birth, today.Year()+1)
	}
	return candidate
}

func anniversary(birth time.Time, year int) time.Time {
	month, day := birth.Month(), birth.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// upcomingBirthdays keeps contacts whose next birthday is within days of
// today (inclusive) and orders them by that date.
func upcomingBirthdays(contacts []*Contact, today time.Time, days int) []*Contact {
	today = truncateDay(today)
	end := today.AddDate(0, 0, days)

	type entry struct {
		c    *Contact
		next time.Time
	}

	matches := make([]entry, 0, len(contacts))
	for _, c := range contacts {
		if c.BirthDate == nil {
			continue
		}
		next := nextBirthday(c.BirthDate.Time, today)
		if next.After(end) {
			continue
		}
		matches = append(matches, entry{c: c, next: next})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].next.Before(matches[j].next)
	})

	out := make([]*Contact, len(matches))
	for i, m := range matches {
		out[i] = m.c
	}
	return out
}
