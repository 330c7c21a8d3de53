package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		today time.Time
		want  time.Time
	}{
		{
			name:  "later this year",
			birth: time.Date(1990, 3, 5, 0, 0, 0, 0, time.UTC),
			today: time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC),
			want:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "today",
			birth: time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC),
			today: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC),
			want:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "already passed rolls to next year",
			birth: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
			today: time.Date(2026, 12, 30, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap day in common year",
			birth: time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC),
			today: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap day in leap year",
			birth: time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC),
			today: time.Date(2028, 2, 20, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBirthday(tt.birth, tt.today))
		})
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	withBirth := func(name string, y int, m time.Month, d int) *Contact {
		bd := NewDate(y, m, d)
		return &Contact{FirstName: name, BirthDate: &bd}
	}

	today := time.Date(2026, 12, 28, 9, 0, 0, 0, time.UTC)
	contacts := []*Contact{
		withBirth("jan3", 1985, time.January, 3),
		withBirth("dec28", 1970, time.December, 28),
		{FirstName: "nobirthday"},
		withBirth("jan4", 1999, time.January, 4),
		withBirth("dec30", 2001, time.December, 30),
		withBirth("jun1", 1990, time.June, 1),
	}

	got := upcomingBirthdays(contacts, today, 7)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.FirstName
	}
	// Jan 4 is exactly seven days out and stays in
	assert.Equal(t, []string{"dec28", "dec30", "jan3", "jan4"}, names)

	onlyToday := upcomingBirthdays(contacts, today, 0)
	if assert.Len(t, onlyToday, 1) {
		assert.Equal(t, "dec28", onlyToday[0].FirstName)
	}
}
