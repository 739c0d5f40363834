package reports

import (
	"encoding/json"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/engine"
)

type DashboardCmd struct {
	JSON bool `help:"Print the aggregates as JSON."`
}

func (c *DashboardCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	snap := s.Dashboard()
	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	ctx.Println(cli.Title("Dashboard " + string(s.Today())))
	ctx.Println(cli.DashboardView(snap))

	views := s.HabitViews(engine.Filter{})
	if len(views) > 0 {
		ctx.Println()
		ctx.Println(cli.Title("Today"))
		for _, v := range views {
			ctx.Println(cli.HabitLine(v))
		}
	}
	return nil
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	habits := s.Habits()
	if len(habits) == 0 {
		ctx.Println("No habits yet. Add one with 'stride habit add'.")
		return nil
	}

	ctx.Println(cli.Title("Last 7 days"))
	ctx.Println(cli.WeeklyChart(engine.WeeklySeries(s.State(), s.Now()), len(habits)))
	ctx.Println()
	ctx.Println(cli.Title("Habits by category"))
	ctx.Println(cli.CategoryChart(engine.CategoryBreakdown(habits)))

	views := s.HabitViews(engine.Filter{})
	best := views[0]
	for _, v := range views[1:] {
		if v.LongestStreak > best.LongestStreak {
			best = v
		}
	}
	ctx.Println()
	ctx.Printf("Longest streak: %d days (%s)\n", best.LongestStreak, best.Habit.Name)
	return nil
}
