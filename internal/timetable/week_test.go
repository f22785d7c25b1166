package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekNumber(t *testing.T) {
	start := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{name: "first day", today: start, want: 1},
		{name: "sixth day after start", today: start.AddDate(0, 0, 6), want: 1},
		{name: "seventh day after start", today: start.AddDate(0, 0, 7), want: 2},
		{name: "late in the day", today: time.Date(2025, 2, 23, 23, 59, 0, 0, time.UTC), want: 1},
		{name: "tenth week", today: start.AddDate(0, 0, 63), want: 10},
		{name: "before semester", today: start.AddDate(0, 0, -3), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekNumber(start, tt.today))
		})
	}
}

func TestWeekNumber_IgnoresTimeOfDayAndZone(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	start := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 2, 24, 0, 30, 0, 0, shanghai)

	assert.Equal(t, 2, WeekNumber(start, today))
}
