package engine

import (
	"time"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/models"
)

// categoryNames maps categories to their display names.
var categoryNames = map[models.Category]string{
	models.CategoryHealth:       "Health & Fitness",
	models.CategoryProductivity: "Productivity",
	models.CategoryLearning:     "Learning",
	models.CategoryMindfulness:  "Mindfulness",
	models.CategorySocial:       "Social",
	models.CategoryOther:        "Other",
}

// chartPalette colors category slices in first-seen order.
var chartPalette = []string{"#48bb78", "#4299e1", "#ed8936", "#9f7aea", "#f56565", "#718096"}

// CategoryName returns the display name for c, or c itself when unknown.
func CategoryName(c models.Category) string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// DayCount is one point of the weekly completion series.
type DayCount struct {
	Day   models.Day
	Label string // short weekday name
	Count int
}

// WeeklySeries counts completed habits for each of the last seven days,
// oldest first, ending today.
func WeeklySeries(state models.State, now time.Time) []DayCount {
	today := models.DayOf(now)
	series := make([]DayCount, 0, constants.WeeklySeriesDays)
	for i := constants.WeeklySeriesDays - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		count := 0
		for _, h := range state.Habits {
			if containsDay(state.Completions[h.ID], day) {
				count++
			}
		}
		series = append(series, DayCount{
			Day:   day,
			Label: day.Weekday().String()[:3],
			Count: count,
		})
	}
	return series
}

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Category models.Category
	Name     string
	Color    string
	Count    int
}

// CategoryBreakdown counts habits per category in first-seen order.
func CategoryBreakdown(habits []models.Habit) []CategoryCount {
	index := make(map[models.Category]int)
	var out []CategoryCount
	for _, h := range habits {
		i, ok := index[h.Category]
		if !ok {
			i = len(out)
			index[h.Category] = i
			out = append(out, CategoryCount{
				Category: h.Category,
				Name:     CategoryName(h.Category),
				Color:    chartPalette[i%len(chartPalette)],
			})
		}
		out[i].Count++
	}
	return out
}
