package records

import (
	"fmt"
	"strings"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/stats"
)

type AddCmd struct {
	Title       string `arg:"" help:"Title of the record."`
	Description string `help:"Short description." short:"d"`
	Icon        string `help:"Icon (usually an emoji)." default:"✨"`
	Color       string `help:"Display color as #RRGGBB." default:"#A3BB96"`
	Primary     bool   `help:"Make this the primary record."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Records(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	r, err := ctx.Service.AddRecord(models.RecordInput{
		Title:       title,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		Primary:     c.Primary,
	})
	if err != nil {
		return fmt.Errorf("failed to add record: %w", err)
	}

	ctx.Printf("%s Added %s %s (%s)\n", cli.SuccessStyle.Render("✓"), r.Icon, r.Title, r.ID)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ctx.Println("No records yet. Add one with 'afterglow record add <title>'.")
		return nil
	}

	now := ctx.Service.Now()
	for _, r := range records {
		mark := " "
		if stats.LoggedToday(r, now) {
			mark = cli.SuccessStyle.Render("✓")
		}
		title := r.Title
		if r.IsPrimary {
			title = cli.PrimaryStyle.Render(title + " ★")
		}
		ctx.Printf("%s %s %s  %s\n", mark, r.Icon, title,
			cli.MutedStyle.Render(fmt.Sprintf("%d day streak · %s", stats.Streak(r, now), r.ID)))
		if r.Description != "" {
			ctx.Printf("      %s\n", cli.MutedStyle.Render(r.Description))
		}
	}
	return nil
}

type DeleteCmd struct {
	Record string `arg:"" help:"Record id or title."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Records()
	if err != nil {
		return err
	}
	r, err := cli.FindRecord(records, c.Record)
	if err != nil {
		return err
	}
	if err := ctx.Service.DeleteRecord(r.ID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	ctx.Printf("Deleted %s. Remote backups still contain it.\n", r.Title)
	return nil
}

type PrimaryCmd struct {
	Record string `arg:"" help:"Record id or title."`
}

func (c *PrimaryCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Records()
	if err != nil {
		return err
	}
	r, err := cli.FindRecord(records, c.Record)
	if err != nil {
		return err
	}
	if err := ctx.Service.SetPrimary(r.ID); err != nil {
		return fmt.Errorf("failed to set primary record: %w", err)
	}
	ctx.Printf("%s %s is now the primary record\n", cli.SuccessStyle.Render("✓"), r.Title)
	return nil
}

type CheckinCmd struct {
	Record string  `arg:"" help:"Record id or title."`
	Date   string  `help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
	Note   *string `help:"Note for the day. Without a note an existing check-in is removed." short:"n"`
}

func (c *CheckinCmd) Run(ctx *cli.Context) error {
	day, r, err := resolve(ctx, c.Record, c.Date)
	if err != nil {
		return err
	}
	wasLogged := r.IsLogged(day)

	if err := ctx.Service.CheckIn(r.ID, day, c.Note); err != nil {
		return fmt.Errorf("failed to check in: %w", err)
	}

	switch {
	case wasLogged && c.Note == nil:
		ctx.Printf("Removed check-in for %s on %s\n", r.Title, day)
	case wasLogged:
		ctx.Printf("%s Updated note for %s on %s\n", cli.SuccessStyle.Render("✓"), r.Title, day)
	default:
		ctx.Printf("%s Checked in %s on %s\n", cli.SuccessStyle.Render("✓"), r.Title, day)
	}
	return nil
}

type UncheckCmd struct {
	Record string `arg:"" help:"Record id or title."`
	Date   string `help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *UncheckCmd) Run(ctx *cli.Context) error {
	day, r, err := resolve(ctx, c.Record, c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Service.Uncheck(r.ID, day); err != nil {
		return fmt.Errorf("failed to uncheck: %w", err)
	}
	ctx.Printf("%s on %s is no longer checked in\n", r.Title, day)
	return nil
}

type NoteCmd struct {
	Record string `arg:"" help:"Record id or title."`
	Note   string `arg:"" help:"New note text. Use \"\" to clear it."`
	Date   string `help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *NoteCmd) Run(ctx *cli.Context) error {
	day, r, err := resolve(ctx, c.Record, c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Service.EditNote(r.ID, day, c.Note); err != nil {
		return fmt.Errorf("failed to edit note: %w", err)
	}
	ctx.Printf("%s Note saved for %s on %s\n", cli.SuccessStyle.Render("✓"), r.Title, day)
	return nil
}

func resolve(ctx *cli.Context, ref, date string) (string, models.Record, error) {
	records, err := ctx.Records()
	if err != nil {
		return "", models.Record{}, err
	}
	r, err := cli.FindRecord(records, ref)
	if err != nil {
		return "", models.Record{}, err
	}
	day, err := ctx.ResolveDate(date)
	if err != nil {
		return "", models.Record{}, err
	}
	return day, r, nil
}
