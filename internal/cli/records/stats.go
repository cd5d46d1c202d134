package records

import (
	"fmt"
	"strings"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/stats"
)

type StatsCmd struct {
	Days int `help:"Number of days in the heatmap." default:"${heatmap_days}"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Records()
	if err != nil {
		return err
	}
	now := ctx.Service.Now()
	if c.Days <= 0 {
		c.Days = constants.HeatmapDays
	}

	ctx.Println(cli.TitleStyle.Render("Streaks"))
	for _, r := range records {
		ctx.Printf("  %s %-24s %3d\n", r.Icon, r.Title, stats.Streak(r, now))
	}
	ctx.Printf("\nTotal check-ins: %d\n\n", stats.TotalCheckIns(records))

	days := stats.Heatmap(records, now, c.Days)
	var b strings.Builder
	for _, d := range days {
		b.WriteString(cli.HeatCell(d.Level()))
	}
	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("Last %d days", len(days))))
	ctx.Println("  " + b.String())
	ctx.Println(cli.MutedStyle.Render("  " + days[0].Date + " → " + days[len(days)-1].Date))
	return nil
}
