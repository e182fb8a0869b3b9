package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfWeek(t *testing.T) {
	loc := time.UTC

	// 2024-03-13 is a Wednesday.
	wed := time.Date(2024, 3, 13, 15, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), StartOfWeek(wed, loc))

	sunday := time.Date(2024, 3, 10, 0, 0, 1, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), StartOfWeek(sunday, loc))

	saturday := time.Date(2024, 3, 16, 23, 59, 59, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), StartOfWeek(saturday, loc))
}

func TestStartOfWeekUsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)

	// Saturday 20:00 UTC is already Sunday 03:00 in Jakarta.
	now := time.Date(2024, 3, 16, 20, 0, 0, 0, time.UTC)
	start := StartOfWeek(now, loc)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, loc), start)
}

func TestDaysBetween(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 13, 8, 0, 0, 0, loc)

	tests := []struct {
		name    string
		earlier time.Time
		want    int
	}{
		{"same day earlier hour", time.Date(2024, 3, 13, 0, 5, 0, 0, loc), 0},
		{"yesterday late evening", time.Date(2024, 3, 12, 23, 59, 0, 0, loc), 1},
		{"three days ago", time.Date(2024, 3, 10, 12, 0, 0, 0, loc), 3},
		{"tomorrow", time.Date(2024, 3, 14, 1, 0, 0, 0, loc), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.earlier, now, loc))
		})
	}
}
