package models

import "time"

// Goal is a numeric target to reach by a deadline
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Target      float64   `json:"target"`
	Unit        string    `json:"unit"`
	Deadline    Day       `json:"deadline"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	Current     float64   `json:"current"`
}
