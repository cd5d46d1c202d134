package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/afterglow/internal/stats"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66AB71")).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9A441"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#726C62"))
	TitleStyle   = lipgloss.NewStyle().Bold(true)
	PrimaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66AB71"))
)

var heatColors = map[stats.Level]lipgloss.Color{
	stats.LevelNone: lipgloss.Color("#E9E8E2"),
	stats.LevelLow:  lipgloss.Color("#D2D8C7"),
	stats.LevelMid:  lipgloss.Color("#A3BB96"),
	stats.LevelHigh: lipgloss.Color("#66AB71"),
}

// HeatCell renders one heatmap day as a colored block.
func HeatCell(l stats.Level) string {
	return lipgloss.NewStyle().Foreground(heatColors[l]).Render("■")
}
