package goals

import (
	"fmt"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/store"
)

type GoalCmd struct {
	Add      GoalAddCmd      `cmd:"" help:"Add a new goal."`
	List     GoalListCmd     `cmd:"" help:"List goals."`
	Progress GoalProgressCmd `cmd:"" help:"Add progress toward a goal."`
	Delete   GoalDeleteCmd   `cmd:"" help:"Delete a goal."`
}

type GoalAddCmd struct {
	Title       string  `arg:"" help:"Goal title."`
	Target      float64 `required:"" help:"Target amount."`
	Unit        string  `required:"" help:"Unit of measure (books, miles, ...)."`
	Deadline    string  `required:"" help:"Deadline in YYYY-MM-DD format."`
	Description string  `help:"Optional description."`
	Color       string  `help:"Display color as #RRGGBB."`
}

func (c *GoalAddCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	g, _, err := s.AddGoal(ctx.Ctx, store.GoalInput{
		Title:       c.Title,
		Description: c.Description,
		Target:      c.Target,
		Unit:        c.Unit,
		Deadline:    models.Day(c.Deadline),
		Color:       c.Color,
	})
	if err != nil {
		return err
	}

	ctx.Printf("✓ Added goal %q (%s)\n", g.Title, g.ID)
	return nil
}

type GoalListCmd struct{}

func (c *GoalListCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	views := s.GoalViews()
	if len(views) == 0 {
		ctx.Println("No goals found.")
		return nil
	}
	for _, v := range views {
		ctx.Println(cli.GoalLine(v))
	}
	return nil
}

type GoalProgressCmd struct {
	Goal  string  `arg:"" help:"Goal id or title."`
	Delta float64 `help:"Amount to add." default:"1"`
}

func (c *GoalProgressCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	g, err := s.ResolveGoal(c.Goal)
	if err != nil {
		return err
	}
	if _, err := s.AddGoalProgress(ctx.Ctx, g.ID, c.Delta); err != nil {
		return err
	}

	updated, err := s.Goal(g.ID)
	if err != nil {
		return err
	}
	ctx.Printf("✓ %s: %s/%s %s (%.0f%%)\n",
		updated.Title,
		cli.FormatAmount(updated.Current), cli.FormatAmount(updated.Target), updated.Unit,
		s.GoalProgress(g.ID),
	)
	return nil
}

type GoalDeleteCmd struct {
	Goal string `arg:"" help:"Goal id or title."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *GoalDeleteCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	g, err := s.ResolveGoal(c.Goal)
	if err != nil {
		return err
	}

	ok, err := ctx.ConfirmAction(c.Yes, fmt.Sprintf("Delete goal %q?", g.Title), "Its progress is removed as well.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Cancelled.")
		return nil
	}

	if _, err := s.DeleteGoal(ctx.Ctx, g.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted goal %q\n", g.Title)
	return nil
}
