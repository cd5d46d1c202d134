package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Records(); err != nil {
		return err
	}
	p := tea.NewProgram(tui.NewModel(ctx.Service), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
