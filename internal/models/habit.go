package models

import "time"

// Category groups habits for filtering and the category chart
type Category string

const (
	CategoryHealth       Category = "health"
	CategoryProductivity Category = "productivity"
	CategoryLearning     Category = "learning"
	CategoryMindfulness  Category = "mindfulness"
	CategorySocial       Category = "social"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryProductivity,
	CategoryLearning,
	CategoryMindfulness,
	CategorySocial,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Frequency determines how long a habit may go without completion before it is overdue
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Frequencies lists every frequency in display order.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// Status filters habits by today's completion state
type Status string

const (
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Category        Category   `json:"category"`
	Frequency       Frequency  `json:"frequency"`
	Goal            int        `json:"goal"`  // target completion count
	Color           string     `json:"color"` // display only
	CreatedAt       time.Time  `json:"created_at"`
	CompletedCount  int        `json:"completed_count"`
	Streak          int        `json:"streak"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}
