package tui

import "github.com/charmbracelet/lipgloss"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FCFBFC")).
			Background(lipgloss.Color("#66AB71")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#726C62")).
				Padding(0, 1)

	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8553D")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#726C62"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66AB71"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9A441"))
	streakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#66AB71")).Bold(true)
)
