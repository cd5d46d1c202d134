package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/stats"
)

// heatmapWeek is the number of cells per heatmap row.
const heatmapWeek = 7

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateToday:
		content = docStyle.Render(m.records.View())
	case StateBackups:
		content = m.viewBackups()
	case StateStats:
		content = m.viewStats()
	case StateAddRecord, StateNote:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		title := m.pending
		if r, ok := m.collection.Find(m.pending); ok {
			title = r.Title
		}
		content = m.viewConfirm(fmt.Sprintf("Delete %q and its history?", title))
	case StateConfirmRestore:
		content = m.viewConfirm(fmt.Sprintf("Replace local records with %s?", m.pending))
	case StateConfirmDeleteBackup:
		content = m.viewConfirm(fmt.Sprintf("Delete %s from the server?", m.pending))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Today", "Backups", "Stats"} {
		if m.tab == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	if m.status.Message == "" {
		return ""
	}
	switch m.status.State {
	case backup.StateRunning:
		return runningStyle.Render(m.status.Message)
	case backup.StateFailed:
		return dangerStyle.Render(m.status.Message)
	case backup.StateSuccess:
		return successStyle.Render(m.status.Message)
	}
	return mutedStyle.Render(m.status.Message)
}

func (m Model) viewBackups() string {
	if !m.listedOnce || len(m.backups.Items()) == 0 {
		return docStyle.Render(mutedStyle.Render("Press r to load backups, b to create one."))
	}
	return docStyle.Render(m.backups.View())
}

func (m Model) viewStats() string {
	now := m.svc.Now()
	days := stats.Heatmap(m.collection, now, constants.HeatmapDays)

	var b strings.Builder
	fmt.Fprintf(&b, "%d record(s), %d check-in(s)\n\n", len(m.collection), stats.TotalCheckIns(m.collection))

	for i, d := range days {
		b.WriteString(cli.HeatCell(d.Level()))
		if (i+1)%heatmapWeek == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	for _, r := range m.collection {
		if s := stats.Streak(r, now); s > 0 {
			fmt.Fprintf(&b, "\n%s %s %s", r.Icon, r.Title, streakStyle.Render(fmt.Sprintf("%d day streak", s)))
		}
	}
	return docStyle.Render(b.String())
}

func (m Model) viewConfirm(question string) string {
	return lipgloss.Place(m.width, max(m.height-4, 0),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(question),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
