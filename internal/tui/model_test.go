package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/cli/clitest"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/tracker"
)

const today = "2024-01-03"

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	out, cmd := m.Update(msg)
	next, ok := out.(Model)
	require.True(t, ok)
	return next, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func newModel(t *testing.T, titles ...string) (*clitest.Env, Model) {
	t.Helper()
	env := clitest.New(t)
	svc := env.Ctx.Service
	_, err := svc.LoadRecords()
	require.NoError(t, err)
	for _, title := range titles {
		_, err := svc.AddRecord(models.RecordInput{Title: title})
		require.NoError(t, err)
	}

	m := NewModel(svc)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = run(t, m, m.Init())
	return env, m
}

func TestToggleCheckIn(t *testing.T) {
	env, m := newModel(t, "Yoga")
	svc := env.Ctx.Service

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.True(t, svc.Records()[0].IsLogged(today))
	item := m.records.SelectedItem().(recordItem)
	require.True(t, item.logged)
	require.Equal(t, 1, item.streak)

	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.False(t, svc.Records()[0].IsLogged(today))
}

func TestNoteKeepsEmptyNoteAsCompleted(t *testing.T) {
	env, m := newModel(t, "Yoga")

	m.openNoteForm("id-1", "")
	require.Equal(t, StateNote, m.state)
	m.noteForm.Note = "  "

	m = submit(t, m)
	require.Equal(t, StateToday, m.state)
	e, ok := env.Ctx.Service.Records()[0].Entry(today)
	require.True(t, ok)
	require.Empty(t, e.Note)
}

func TestAddRecordForm(t *testing.T) {
	env, m := newModel(t, "Yoga")

	m.openRecordForm()
	m.recordForm.Title = " Reading "
	m.recordForm.Primary = true

	m = submit(t, m)
	records := env.Ctx.Service.Records()
	require.Len(t, records, 2)
	require.Equal(t, "Reading", records[1].Title)
	p, ok := records.Primary()
	require.True(t, ok)
	require.Equal(t, "id-2", p.ID)
	require.Len(t, m.records.Items(), 2)
}

func TestEscapeClosesForm(t *testing.T) {
	_, m := newModel(t)
	m.openRecordForm()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, StateToday, m.state)
	require.Nil(t, m.form)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	env, m := newModel(t, "Yoga", "Reading")
	svc := env.Ctx.Service

	m, _ = update(t, m, runes("d"))
	require.Equal(t, StateConfirmDelete, m.state)
	require.Contains(t, m.View(), `Delete "Yoga"`)

	m, _ = update(t, m, runes("n"))
	require.Equal(t, StateToday, m.state)
	require.Len(t, svc.Records(), 2)

	m, _ = update(t, m, runes("d"))
	m, _ = update(t, m, runes("y"))
	require.Equal(t, StateToday, m.state)
	require.Len(t, svc.Records(), 1)
	require.Len(t, m.records.Items(), 1)
}

func TestBackupWithoutSettings(t *testing.T) {
	env, m := newModel(t, "Yoga")

	m, cmd := update(t, m, runes("b"))
	require.True(t, m.busy)
	require.Equal(t, backup.StateRunning, m.status.State)

	m = run(t, m, cmd)
	require.False(t, m.busy)
	require.True(t, m.status.Failed())
	require.Contains(t, m.status.Message, "Please configure WebDAV settings first")
	require.Empty(t, env.Server.Files(t))
}

func TestBackupIgnoredWhileBusy(t *testing.T) {
	_, m := newModel(t, "Yoga")

	m, cmd := update(t, m, runes("b"))
	require.NotNil(t, cmd)
	_, cmd = update(t, m, runes("b"))
	require.Nil(t, cmd)
}

func TestBackupAndRestoreFlow(t *testing.T) {
	env, m := newModel(t, "Yoga")
	env.Configure(t)
	svc := env.Ctx.Service

	m, cmd := update(t, m, runes("b"))
	m = run(t, m, cmd)
	require.Equal(t, tracker.Status{State: backup.StateSuccess, Message: "Backup saved as backup_20240103120000.json"}, m.status)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, StateBackups, m.state)
	m = run(t, m, cmd)
	require.Len(t, m.backups.Items(), 1)
	require.Equal(t, "1 backup(s) on server", m.status.Message)

	// local change that the restore should undo
	_, err := svc.AddRecord(models.RecordInput{Title: "Reading"})
	require.NoError(t, err)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, StateConfirmRestore, m.state)
	m, cmd = update(t, m, runes("y"))
	require.Equal(t, StateBackups, m.state)
	m = run(t, m, cmd)

	require.Equal(t, backup.StateSuccess, m.status.State)
	require.Contains(t, m.status.Message, "Restored 1 record(s)")
	require.Len(t, svc.Records(), 1)
	require.Len(t, m.records.Items(), 1)
}

func TestDeleteRemoteBackup(t *testing.T) {
	env, m := newModel(t, "Yoga")
	env.Configure(t)

	m, cmd := update(t, m, runes("b"))
	m = run(t, m, cmd)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = run(t, m, cmd)

	m, _ = update(t, m, runes("d"))
	require.Equal(t, StateConfirmDeleteBackup, m.state)
	m, cmd = update(t, m, runes("y"))
	m = run(t, m, cmd)

	require.Equal(t, "Deleted backup_20240103120000.json", m.status.Message)
	require.Empty(t, m.backups.Items())
	require.Empty(t, env.Server.Files(t))
}

func TestStatsView(t *testing.T) {
	env, m := newModel(t, "Yoga")
	require.NoError(t, env.Ctx.Service.CheckIn("id-1", today, nil))
	m, _ = update(t, m, recordsMsg{records: env.Ctx.Service.Records()})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, StateStats, m.state)
	view := m.View()
	require.Contains(t, view, "1 record(s), 1 check-in(s)")
	require.Contains(t, view, "1 day streak")
}

func submit(t *testing.T, m Model) Model {
	t.Helper()
	out, _ := m.submitForm()
	next, ok := out.(Model)
	require.True(t, ok)
	return next
}
