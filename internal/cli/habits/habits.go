package habits

import (
	"errors"
	"fmt"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/store"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Done   HabitDoneCmd   `cmd:"" help:"Mark a habit as done for a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Optional description."`
	Category    string `help:"Category (health, productivity, learning, mindfulness, social, other)." default:"other" enum:"health,productivity,learning,mindfulness,social,other"`
	Frequency   string `help:"How often the habit is due (daily, weekly, monthly)." default:"daily" enum:"daily,weekly,monthly"`
	Goal        int    `help:"Target number of completions." default:"1"`
	Color       string `help:"Display color as #RRGGBB."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	h, _, err := s.AddHabit(ctx.Ctx, store.HabitInput{
		Name:        c.Name,
		Description: c.Description,
		Category:    models.Category(c.Category),
		Frequency:   models.Frequency(c.Frequency),
		Goal:        c.Goal,
		Color:       c.Color,
	})
	if err != nil {
		return err
	}

	ctx.Printf("✓ Added habit %q (%s)\n", h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	Category string `help:"Only show habits in this category."`
	Status   string `help:"Only show habits that are completed, active or overdue."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	views := s.HabitViews(engine.Filter{
		Category: models.Category(c.Category),
		Status:   models.Status(c.Status),
	})
	if len(views) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, v := range views {
		ctx.Println(cli.HabitLine(v))
	}
	return nil
}

type HabitDoneCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := s.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}

	if _, err := s.RecordCompletion(ctx.Ctx, h.ID, day); err != nil {
		if errors.Is(err, store.ErrDuplicateCompletion) {
			ctx.Printf("ℹ %q is already marked done for %s\n", h.Name, day)
		}
		return err
	}

	updated, err := s.Habit(h.ID)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Marked %q done for %s (streak %d)\n", updated.Name, day, updated.Streak)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := s.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	ok, err := ctx.ConfirmAction(c.Yes,
		fmt.Sprintf("Delete habit %q?", h.Name),
		fmt.Sprintf("This removes %d recorded completions.", len(s.Completions(h.ID))),
	)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Cancelled.")
		return nil
	}

	if _, err := s.DeleteHabit(ctx.Ctx, h.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted habit %q\n", h.Name)
	return nil
}
