package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/validation"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func positiveFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return errors.New("enter a number greater than 0")
	}
	return nil
}

func deltaAmount(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	return validation.Delta(v)
}

func dayString(s string) error {
	if _, err := models.ParseDay(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a date as YYYY-MM-DD")
	}
	return nil
}

func categoryOptions() []huh.Option[models.Category] {
	opts := make([]huh.Option[models.Category], len(models.Categories))
	for i, c := range models.Categories {
		opts[i] = huh.NewOption(engine.CategoryName(c), c)
	}
	return opts
}

func frequencyOptions() []huh.Option[models.Frequency] {
	opts := make([]huh.Option[models.Frequency], len(models.Frequencies))
	for i, f := range models.Frequencies {
		opts[i] = huh.NewOption(string(f), f)
	}
	return opts
}

func newHabitForm(f *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&f.Name).Validate(required("name")),
			huh.NewInput().Title("Description").Value(&f.Description),
			huh.NewSelect[models.Category]().Title("Category").Options(categoryOptions()...).Value(&f.Category),
			huh.NewSelect[models.Frequency]().Title("Frequency").Options(frequencyOptions()...).Value(&f.Frequency),
			huh.NewInput().Title("Target completions").Value(&f.Goal).Validate(positiveInt),
		),
	).WithShowHelp(true)
}

func (f *HabitFormModel) input() store.HabitInput {
	goal, _ := strconv.Atoi(strings.TrimSpace(f.Goal))
	return store.HabitInput{
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
		Frequency:   f.Frequency,
		Goal:        goal,
	}
}

func newGoalForm(f *GoalFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&f.Title).Validate(required("title")),
			huh.NewInput().Title("Description").Value(&f.Description),
			huh.NewInput().Title("Target").Value(&f.Target).Validate(positiveFloat),
			huh.NewInput().Title("Unit").Placeholder("books, km, hours").Value(&f.Unit).Validate(required("unit")),
			huh.NewInput().Title("Deadline").Placeholder("YYYY-MM-DD").Value(&f.Deadline).Validate(dayString),
		),
	).WithShowHelp(true)
}

func (f *GoalFormModel) input() store.GoalInput {
	target, _ := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	return store.GoalInput{
		Title:       f.Title,
		Description: f.Description,
		Target:      target,
		Unit:        f.Unit,
		Deadline:    models.Day(strings.TrimSpace(f.Deadline)),
	}
}

func newDeltaForm(f *DeltaFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Add progress to " + f.Title).
				Value(&f.Amount).
				Validate(deltaAmount),
		),
	).WithShowHelp(true)
}

func (f *DeltaFormModel) delta() float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	return v
}
