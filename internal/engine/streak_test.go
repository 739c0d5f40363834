package engine

import (
	"testing"

	"github.com/julianstephens/stride/internal/models"
)

func TestStreak(t *testing.T) {
	today := models.Day("2026-10-18")

	tests := []struct {
		name string
		days []models.Day
		want int
	}{
		{
			name: "empty set",
			days: nil,
			want: 0,
		},
		{
			name: "three consecutive days ending today",
			days: []models.Day{today, today.AddDays(-1), today.AddDays(-2)},
			want: 3,
		},
		{
			name: "broken chain keeps only the seed",
			days: []models.Day{today, today.AddDays(-2)},
			want: 1,
		},
		{
			name: "run ending yesterday still counts",
			days: []models.Day{today.AddDays(-1), today.AddDays(-2), today.AddDays(-3)},
			want: 3,
		},
		{
			name: "most recent two days ago",
			days: []models.Day{today.AddDays(-2), today.AddDays(-3)},
			want: 0,
		},
		{
			name: "unsorted input",
			days: []models.Day{today.AddDays(-2), today, today.AddDays(-1)},
			want: 3,
		},
		{
			name: "duplicates are collapsed",
			days: []models.Day{today, today, today.AddDays(-1)},
			want: 2,
		},
		{
			name: "malformed days are ignored",
			days: []models.Day{"Sat Oct 18 2026", today},
			want: 1,
		},
		{
			name: "month boundary",
			days: []models.Day{"2026-03-01", "2026-02-28", "2026-02-27"},
			want: 3,
		},
		{
			name: "seven day meditation run",
			days: []models.Day{
				today, today.AddDays(-1), today.AddDays(-2), today.AddDays(-3),
				today.AddDays(-4), today.AddDays(-5), today.AddDays(-6),
			},
			want: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := today
			if tt.name == "month boundary" {
				ref = "2026-03-01"
			}
			if got := Streak(tt.days, ref); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestStreak(t *testing.T) {
	days := []models.Day{
		"2026-10-01", "2026-10-02", "2026-10-03", "2026-10-04",
		"2026-10-10", "2026-10-11",
		"2026-10-18",
	}
	if got := LongestStreak(days); got != 4 {
		t.Errorf("LongestStreak() = %d, want 4", got)
	}
	if got := LongestStreak(nil); got != 0 {
		t.Errorf("LongestStreak(nil) = %d, want 0", got)
	}
}
